package main

import (
	"bufio"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/shiwa/quadctl/internal/telemetry"
)

// series: одна кривая графика.
type series struct {
	name string
	y    func(telemetry.Record) float64
}

// chart: один PNG.
type chart struct {
	file, title, ylabel string
	lines               []series
}

func rotor(i int, speed bool) func(telemetry.Record) float64 {
	if speed {
		return func(r telemetry.Record) float64 { return r.Speed[i] }
	}
	return func(r telemetry.Record) float64 { return float64(r.Command[i]) }
}

var charts = []chart{
	{"roll.png", "Roll", "rad", []series{
		{"AHRS.Roll", func(r telemetry.Record) float64 { return r.Roll }},
		{"RC.Roll", func(r telemetry.Record) float64 { return r.TargetRoll }},
	}},
	{"pitch.png", "Pitch", "rad", []series{
		{"AHRS.Pitch", func(r telemetry.Record) float64 { return r.Pitch }},
		{"RC.Pitch", func(r telemetry.Record) float64 { return r.TargetPitch }},
	}},
	{"yaw_rate.png", "Yaw rate", "rad/s", []series{
		{"AHRS.R", func(r telemetry.Record) float64 { return r.R }},
		{"RC.R", func(r telemetry.Record) float64 { return r.TargetYawRate }},
	}},
	{"control.png", "Compensator outputs", "u", []series{
		{"Uphi", func(r telemetry.Record) float64 { return r.URoll }},
		{"Utheta", func(r telemetry.Record) float64 { return r.UPitch }},
		{"Ur", func(r telemetry.Record) float64 { return r.UYaw }},
	}},
	{"speeds.png", "Rotor speeds", "rad/s", []series{
		{"w1", rotor(0, true)}, {"w2", rotor(1, true)}, {"w3", rotor(2, true)}, {"w4", rotor(3, true)},
	}},
	{"commands.png", "PWM commands", "us", []series{
		{"w1_pwm", rotor(0, false)}, {"w2_pwm", rotor(1, false)}, {"w3_pwm", rotor(2, false)}, {"w4_pwm", rotor(3, false)},
	}},
}

var palette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
}

// savePlots рисует все графики журнала в dir и возвращает пути PNG.
func savePlots(dir string, records []telemetry.Record, interval time.Duration) ([]string, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("journal is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create directory: %w", err)
	}
	dt := interval.Seconds()
	var files []string
	for _, c := range charts {
		p := plot.New()
		p.Title.Text = c.title
		p.X.Label.Text = "time (s)"
		p.Y.Label.Text = c.ylabel
		p.Add(plotter.NewGrid())
		p.Legend.Top = true

		for i, s := range c.lines {
			pts := make(plotter.XYs, len(records))
			for n, r := range records {
				pts[n].X = float64(n) * dt
				pts[n].Y = s.y(r)
			}
			line, err := plotter.NewLine(pts)
			if err != nil {
				return files, fmt.Errorf("%s: %w", c.file, err)
			}
			line.LineStyle.Width = vg.Points(1.5)
			line.LineStyle.Color = palette[i%len(palette)]
			p.Add(line)
			p.Legend.Add(s.name, line)
		}

		name := filepath.Join(dir, c.file)
		if err := savePNG(p, 8, 4, name); err != nil {
			return files, err
		}
		files = append(files, name)
	}
	return files, nil
}

func savePNG(p *plot.Plot, widthIn, heightIn float64, filename string) error {
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(150),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}
