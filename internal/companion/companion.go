// Package companion запускает сопутствующие процессы (оценщик ориентации, мост RC)
// как дочерние и останавливает их при выходе.
package companion

import (
	"log"
	"os/exec"
	"sync"

	"github.com/shiwa/quadctl/internal/logger"
)

// Job: один сопутствующий процесс.
type Job struct {
	Name string   // имя для логов; процессы с одинаковым именем запускаются один раз
	Path string   // исполняемый файл
	Args []string // аргументы
}

// Group: запущенные процессы.
type Group struct {
	names []string
	cmds  []*exec.Cmd
	once  sync.Once
}

// Start запускает процессы. Ошибка запуска одного процесса логируется, остальные запускаются.
// Вывод процессов идёт в лог, если quiet == false.
func Start(jobs []Job, quiet bool) *Group {
	g := &Group{}
	seen := make(map[string]bool)
	for _, j := range jobs {
		if j.Path == "" {
			logger.Info("companion %s: path required", j.Name)
			continue
		}
		name := j.Name
		if name == "" {
			name = j.Path
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		cmd := exec.Command(j.Path, j.Args...)
		if !quiet {
			cmd.Stdout = log.Writer()
			cmd.Stderr = log.Writer()
		}
		if err := cmd.Start(); err != nil {
			logger.Error("companion %s start: %v", name, err)
			continue
		}
		g.names = append(g.names, name)
		g.cmds = append(g.cmds, cmd)
		logger.Info("companion started: %s (%s, pid %d)", name, j.Path, cmd.Process.Pid)
	}
	return g
}

// Running возвращает имена запущенных процессов.
func (g *Group) Running() []string {
	return append([]string(nil), g.names...)
}

// Stop завершает все процессы и дожидается их. Повторные вызовы ничего не делают.
func (g *Group) Stop() {
	g.once.Do(func() {
		for i, cmd := range g.cmds {
			if cmd.Process == nil {
				continue
			}
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			logger.Info("companion stopped: %s", g.names[i])
		}
	})
}
