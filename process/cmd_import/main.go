package main

import (
	"flag"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"kili/process/importer"
)

// Imports movement batch CSVs from a drop directory, once or in watch mode.
func main() {
	dirFlag := flag.String("dir", "batches", "directory to scan for movement batch files")
	watch := flag.Bool("watch", false, "watch directory for new files")
	flag.Parse()

	_ = godotenv.Load()
	zl, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	log := zl.Sugar()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN must be set in environment to run this tool")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	im := &importer.Importer{DB: db, Log: log}

	// one initial scan so pre-existing files are not missed
	names := listBatchFiles(*dirFlag)
	for _, name := range names {
		n, err := im.ImportFile(*dirFlag + "/" + name)
		if err != nil {
			log.Warnw("batch rejected", "file", name, "error", err)
			continue
		}
		log.Infow("batch imported", "file", name, "movements", n)
	}

	if *watch {
		if err := im.Watch(*dirFlag); err != nil {
			log.Fatalw("watcher failed", "error", err)
		}
	}
}

func listBatchFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !importer.IsBatchFile(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}
