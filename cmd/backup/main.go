package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gleanenglish/internal/config"
	"gleanenglish/internal/database"
	"gleanenglish/internal/logger"
	"gleanenglish/internal/service"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.RunMigrations(ctx); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	backupService := service.NewBackupService(db, log)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(ctx, log, backupService, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(ctx, log, backupService, db, *importInput, *importClear)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, log *logger.Logger, backupService *service.BackupService, outputPath string) {
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal("Failed to create output directory", "error", err)
		}
	}

	log.Info("Exporting database", "output", outputPath)
	backup, err := backupService.ExportFile(ctx, outputPath)
	if err != nil {
		log.Fatal("Export failed", "error", err)
	}

	fileInfo, err := os.Stat(outputPath)
	if err != nil {
		log.Fatal("Export file missing", "error", err)
	}
	log.Info("Export complete",
		"users", len(backup.Users),
		"attempts", len(backup.Attempts),
		"size_mb", fmt.Sprintf("%.2f", float64(fileInfo.Size())/1024/1024),
	)
}

func handleImport(ctx context.Context, log *logger.Logger, backupService *service.BackupService, db *database.DB, inputPath string, clearData bool) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		log.Fatal("Input file does not exist", "input", inputPath)
	}

	if clearData {
		fmt.Print("WARNING: This will delete all existing data. Type 'yes' to confirm: ")
		var confirmation string
		fmt.Scanln(&confirmation)
		if confirmation != "yes" {
			log.Info("Import cancelled")
			return
		}

		log.Info("Clearing existing data")
		if err := clearDatabase(ctx, log, db); err != nil {
			log.Fatal("Failed to clear database", "error", err)
		}
	}

	log.Info("Importing database", "input", inputPath)
	summary, err := backupService.ImportFile(ctx, inputPath)
	if err != nil {
		log.Fatal("Import failed", "error", err)
	}

	log.Info("Import complete",
		"users_imported", summary.UsersImported,
		"users_skipped", summary.UsersSkipped,
		"attempts_imported", summary.AttemptsImported,
		"attempts_skipped", summary.AttemptsSkipped,
	)
}

func clearDatabase(ctx context.Context, log *logger.Logger, db *database.DB) error {
	// Delete in reverse order of dependencies
	tables := []string{
		"lesson_history",
		"revoked_sessions",
		"users",
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
		log.Info("Cleared table", "table", table)
	}

	return nil
}

func printUsage() {
	fmt.Println("Glean English Database Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export users and lesson history to a JSON file")
	fmt.Println("  backup import [options]    Import users and lesson history from a JSON file")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Clear existing data before import (WARNING: destructive)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE          Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./gleanenglish.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
