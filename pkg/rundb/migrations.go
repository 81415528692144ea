package rundb

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
)

func Migrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE run(
			id INTEGER PRIMARY KEY,
			started_at INT NOT NULL,
			finished_at INT NOT NULL,
			model TEXT NOT NULL,
			threshold REAL NOT NULL,
			source_dir TEXT NOT NULL,
			image_count INT NOT NULL,
			positive_count INT NOT NULL,
			negative_count INT NOT NULL,
			copied_count INT NOT NULL DEFAULT 0
		);

		CREATE TABLE run_image(
			id INTEGER PRIMARY KEY,
			run_id INT NOT NULL,
			image TEXT NOT NULL,
			taken INT,
			max_confidence REAL NOT NULL,
			detection_count INT NOT NULL,
			positive INT NOT NULL
		);

		CREATE INDEX idx_run_image_run_id ON run_image (run_id);
	`))

	return migs
}
