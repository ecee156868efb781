// quadplot: графики журнала полёта quadctl (PNG).
//
// Использование:
//
//	quadplot -out plots IMS1_CSV_LOG-2017-06-21--14-05-09.dat
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shiwa/quadctl/internal/telemetry"
)

func main() {
	outDir := flag.String("out", ".", "каталог для PNG")
	interval := flag.Duration("interval", 10*time.Millisecond, "период цикла при записи журнала")
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: quadplot [-out dir] [-interval 10ms] log.dat ...")
		os.Exit(2)
	}
	for _, path := range flag.Args() {
		records, err := telemetry.ReadFile(path)
		if err != nil {
			log.Fatalf("%s: %v", path, err)
		}
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		files, err := savePlots(filepath.Join(*outDir, stem), records, *interval)
		if err != nil {
			log.Fatalf("%s: %v", path, err)
		}
		for _, f := range files {
			fmt.Println(f)
		}
	}
}
