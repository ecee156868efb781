// quadctl: цикл управления ориентацией квадрокоптера схемы "X" (режим IMS1).
//
// Демон читает уставки пилота и оценку ориентации с полётного стека, вычисляет
// корректоры крена, тангажа и рыскания, распределяет моменты и тягу по четырём роторам
// и выводит команды ШИМ. Каждая активация пишет журнал полёта.
//
// Использование:
//
//	quadctl -check-params -params drone.txt   проверить файл параметров и выйти
//	quadctl -template > drone.txt             файл параметров по умолчанию
//	quadctl -list-ports                       последовательные порты
//	quadctl -run -config quadctl.yml          запуск цикла управления
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shiwa/quadctl/internal/config"
	"github.com/shiwa/quadctl/internal/link"
	"github.com/shiwa/quadctl/internal/logger"
	"github.com/shiwa/quadctl/internal/params"
	"github.com/shiwa/quadctl/pkg/flight"
)

func main() {
	run := flag.Bool("run", false, "запуск цикла управления")
	checkParams := flag.Bool("check-params", false, "загрузить и проверить параметры аппарата и выйти")
	template := flag.Bool("template", false, "вывести файл параметров по умолчанию и выйти")
	listPorts := flag.Bool("list-ports", false, "вывести последовательные порты и выйти")
	configPath := flag.String("config", "", "путь к YAML конфигу (по умолчанию quadctl.yml)")
	paramsPath := flag.String("params", "", "файл параметров аппарата (переопределяет config)")
	port := flag.String("port", "", "последовательный порт (переопределяет config)")
	baud := flag.Int("baud", 0, "скорость порта (переопределяет config)")
	quiet := flag.Bool("quiet", false, "меньше вывода")
	verbose := flag.Bool("verbose", false, "отладочный вывод по каждому циклу")
	flag.Parse()

	logger.Quiet = *quiet
	logger.Verbose = *verbose

	if *template {
		if err := params.Format(os.Stdout, params.Default().Values()); err != nil {
			log.Fatalf("template: %v", err)
		}
		return
	}
	if *listPorts {
		ports, err := link.ListPorts()
		if err != nil {
			log.Fatal(err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if *paramsPath != "" {
		cfg.Airframe.ParamsFile = *paramsPath
	}
	if *port != "" {
		cfg.Link.Port = *port
	}
	if *baud != 0 {
		cfg.Link.Baud = *baud
	}

	if *run {
		runDaemonWithShutdown(cfg, *quiet)
		return
	}

	// По умолчанию: только проверка параметров
	runCheckParams(cfg, *quiet)
	if !*checkParams && !*quiet {
		fmt.Println("quadctl: для запуска цикла управления используйте -run.")
	}
}

// loadConfig читает конфиг. Без -config файл quadctl.yml необязателен.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = "quadctl.yml"
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, nil
		}
	}
	return config.Load(path)
}

func runCheckParams(cfg *config.Config, quiet bool) {
	p, err := flight.LoadParams(cfg.Airframe)
	if err != nil {
		log.Fatalf("параметры: %v", err)
	}
	if _, err := flight.AllocatorConfig(cfg); err != nil {
		log.Fatalf("распределение: %v", err)
	}
	if quiet {
		return
	}
	src := cfg.Airframe.ParamsFile
	if src == "" {
		src = "встроенные"
	}
	fmt.Printf("Параметры (%s):\n", src)
	fmt.Printf("  b = %g Н·с², d = %g Н·м·с², l = %g м\n", p.ThrustCoeff(), p.DragCoeff(), p.ArmLength())
	fmt.Printf("  обороты [%g, %g] рад/с, масса отрыва %g кг\n", p.RotationMin(), p.RotationMax(), p.LiftoffMass())
	for _, c := range []struct {
		name string
		k    interface{}
	}{{"крен", p.Roll()}, {"тангаж", p.Pitch()}, {"рыскание", p.Yaw()}} {
		fmt.Printf("  %s: %+v\n", c.name, c.k)
	}
}

// runDaemonWithShutdown запускает flight.RunDaemon; по SIGINT/SIGTERM контекст отменяется,
// выходы переводятся в холостой ход, журнал закрывается.
func runDaemonWithShutdown(cfg *config.Config, quiet bool) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("получен сигнал %v, завершение...", sig)
		cancel()
	}()

	if err := flight.RunDaemon(ctx, cfg, quiet); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
