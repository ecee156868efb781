// Package link: кадровый протокол последовательной линии между quadctl и полётным стеком.
//
// Формат кадра: 0xB5 0x62, class, id, длина (uint16 LE), payload, ck_a, ck_b.
// Контрольная сумма: 8-битный Флетчер по class..payload.
package link

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Sync bytes кадра
const (
	Sync1 = 0xB5
	Sync2 = 0x62
)

// HeaderSize: sync, class, id, длина. Кадр = HeaderSize + payload + 2.
const HeaderSize = 6

// MaxPayload: payload длиннее считается мусором на линии.
const MaxPayload = 256

// ErrChecksum: контрольная сумма кадра не сошлась.
var ErrChecksum = errors.New("link: checksum mismatch")

// ErrLength: длина payload в заголовке больше MaxPayload.
var ErrLength = errors.New("link: payload too long")

// Header: заголовок кадра.
type Header struct {
	Class  uint8
	ID     uint8
	Length uint16
}

// Checksum вычисляет контрольную сумму (без sync bytes).
func Checksum(data []byte) (ckA, ckB uint8) {
	for _, b := range data {
		ckA += b
		ckB += ckA
	}
	return ckA, ckB
}

// EncodePacket собирает кадр: header + payload + checksum.
func EncodePacket(class, id uint8, payload []byte) []byte {
	buf := make([]byte, 0, HeaderSize+len(payload)+2)
	buf = append(buf, Sync1, Sync2, class, id)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(payload)))
	buf = append(buf, payload...)
	ckA, ckB := Checksum(buf[2:])
	return append(buf, ckA, ckB)
}

// ParseHeader разбирает заголовок (минимум HeaderSize байт).
func ParseHeader(buf []byte) (h Header, ok bool) {
	if len(buf) < HeaderSize || buf[0] != Sync1 || buf[1] != Sync2 {
		return Header{}, false
	}
	h.Class = buf[2]
	h.ID = buf[3]
	h.Length = binary.LittleEndian.Uint16(buf[4:6])
	return h, true
}

// VerifyChecksum проверяет контрольную сумму полного кадра.
func VerifyChecksum(packet []byte) bool {
	if len(packet) < HeaderSize+2 {
		return false
	}
	ckA, ckB := Checksum(packet[2 : len(packet)-2])
	return packet[len(packet)-2] == ckA && packet[len(packet)-1] == ckB
}

// Payload возвращает payload кадра (без заголовка и checksum) или nil, если длина не сходится.
func Payload(packet []byte) []byte {
	h, ok := ParseHeader(packet)
	if !ok || len(packet) != HeaderSize+int(h.Length)+2 {
		return nil
	}
	return packet[HeaderSize : HeaderSize+int(h.Length)]
}

// ReadPacket читает из r один кадр: ищет sync, затем длину, затем payload и checksum.
// При несовпадении суммы возвращает прочитанный кадр и ErrChecksum.
func ReadPacket(r io.Reader) ([]byte, error) {
	var b [1]byte
	var prev byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		if prev == Sync1 && b[0] == Sync2 {
			break
		}
		prev = b[0]
	}
	buf := make([]byte, HeaderSize, HeaderSize+MaxPayload+2)
	buf[0], buf[1] = Sync1, Sync2
	if _, err := io.ReadFull(r, buf[2:HeaderSize]); err != nil {
		return nil, err
	}
	length := int(binary.LittleEndian.Uint16(buf[4:6]))
	if length > MaxPayload {
		return nil, fmt.Errorf("%w: %d > %d", ErrLength, length, MaxPayload)
	}
	buf = buf[:HeaderSize+length+2]
	if _, err := io.ReadFull(r, buf[HeaderSize:]); err != nil {
		return nil, err
	}
	if !VerifyChecksum(buf) {
		return buf, ErrChecksum
	}
	return buf, nil
}
