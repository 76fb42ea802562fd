package data

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/tauraamui/noicevoid/pkg/database/dbconn"
	"github.com/tauraamui/noicevoid/pkg/database/models"
	"github.com/tauraamui/noicevoid/pkg/database/repos"
	"github.com/tauraamui/noicevoid/pkg/job"
	"github.com/tauraamui/noicevoid/pkg/log"
	"github.com/tauraamui/xerror"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	vendorName       = "tauraamui"
	appName          = "noicevoid"
	databaseFileName = "noicevoid.db"
	databaseEnvVar   = "NOICE_DB"
)

var (
	ErrCreateDBFile    = xerror.New("unable to create database file")
	ErrDBAlreadyExists = xerror.New("database file already exists")
)

var uc = os.UserCacheDir
var fs = afero.NewOsFs()

// Setup creates the database file at the resolved location and migrates it.
// An empty configured path falls back to the user cache dir.
func Setup(configured string) error {
	log.Info("Creating database file...")

	if err := createFile(configured); err != nil {
		return err
	}

	db, err := Connect(configured)
	if err != nil {
		return err
	}
	return db.Close()
}

func Destroy(configured string) error {
	dbFilePath, err := resolveDBPath(configured, uc)
	if err != nil {
		return xerror.Errorf("unable to delete database file: %w", err)
	}

	return fs.Remove(dbFilePath)
}

func Connect(configured string) (dbconn.GormWrapper, error) {
	dbPath, err := resolveDBPath(configured, uc)
	if err != nil {
		return nil, err
	}

	log.Debug("Connecting to DB: %s", dbPath)
	db, err := openDBConnection(dbPath)
	if err != nil {
		return nil, xerror.Errorf("unable to open db connection: %w", err)
	}

	err = models.AutoMigrate(db)
	if err != nil {
		return nil, xerror.Errorf("unable to run automigrations: %w", err)
	}

	return db, nil
}

var openDBConnection = func(path string) (dbconn.GormWrapper, error) {
	logger := logger.New(nil, logger.Config{LogLevel: logger.Silent})
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger})
	if err != nil {
		return nil, err
	}
	return dbconn.Wrap(db), nil
}

// History records finished render jobs so their outcome can be looked up
// after the request that ran them is gone.
type History struct {
	repo repos.RenderRepository
}

func NewHistory(db dbconn.GormWrapper) *History {
	return &History{repo: repos.RenderRepository{DB: db}}
}

func (h *History) Record(j job.Job, res job.Result) error {
	record := models.NewRenderRecord(j, res)
	if err := h.repo.Create(&record); err != nil {
		return xerror.Errorf("unable to record render %s: %w", j.ID, err)
	}
	return nil
}

func (h *History) Lookup(id string) (job.Result, error) {
	record, err := h.repo.FindByUUID(id)
	if err != nil {
		return job.Result{}, err
	}
	return record.Result(), nil
}

// Recent lists up to limit recorded results, newest first.
func (h *History) Recent(limit int) ([]job.Result, error) {
	records, err := h.repo.Recent(limit)
	if err != nil {
		return nil, err
	}
	results := make([]job.Result, 0, len(records))
	for _, record := range records {
		results = append(results, record.Result())
	}
	return results, nil
}

func resolveDBPath(configured string, uc func() (string, error)) (string, error) {
	databasePath := os.Getenv(databaseEnvVar)
	if len(databasePath) > 0 {
		return databasePath, nil
	}

	if len(configured) > 0 {
		return configured, nil
	}

	databaseParentDir, err := uc()
	if err != nil {
		return "", xerror.Errorf("unable to resolve %s database file location: %w", databaseFileName, err)
	}

	return filepath.Join(
		databaseParentDir,
		vendorName,
		appName,
		databaseFileName), nil
}

func createFile(configured string) error {
	path, err := resolveDBPath(configured, uc)
	if err != nil {
		return err
	}

	if _, err := fs.Stat(path); errors.Is(err, os.ErrNotExist) {
		fs.MkdirAll(filepath.Dir(path), os.ModeDir|os.ModePerm) //nolint

		file, err := fs.Create(path)
		if err != nil {
			return xerror.Errorf("%v: %w", ErrCreateDBFile, err)
		}
		return file.Close()
	}

	return xerror.Errorf("%w: %s", ErrDBAlreadyExists, path)
}
