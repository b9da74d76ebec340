package cli

import (
	"fmt"

	"github.com/umoja-health/tracksync/internal/adapters/driven/config/file"
	"github.com/umoja-health/tracksync/internal/adapters/driven/couchdb"
	"github.com/umoja-health/tracksync/internal/adapters/driven/dhis2"
	"github.com/umoja-health/tracksync/internal/adapters/driven/storage/sqlite"
	"github.com/umoja-health/tracksync/internal/core/services"
	"github.com/umoja-health/tracksync/internal/logger"
	"github.com/umoja-health/tracksync/internal/mapping"
)

// ensureSyncer wires the pipeline from configuration on first use.
func ensureSyncer() error {
	if syncer != nil {
		return nil
	}

	cfg, err := file.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(logLevel)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	source := couchdb.NewClient(couchdb.Config{
		URL:                cfg.CouchDB.URL,
		Database:           cfg.CouchDB.Database,
		Username:           cfg.CouchDB.Username,
		Password:           cfg.CouchDB.Password,
		InsecureSkipVerify: cfg.CouchDB.InsecureSkipVerify,
		FeedTimeout:        cfg.CouchDB.FeedTimeout(),
	}, log.Named("couchdb"))

	sink := dhis2.NewClient(dhis2.Config{
		URL:                cfg.DHIS2.URL,
		Username:           cfg.DHIS2.Username,
		Password:           cfg.DHIS2.Password,
		Resolve:            cfg.DHIS2.Resolve,
		InsecureSkipVerify: cfg.DHIS2.InsecureSkipVerify,
	}, log.Named("dhis2"))

	ledger, err := sqlite.NewLedger(cfg.Sync.DataDir)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}

	routeCtx := mapping.Context{
		DefaultOrgUnit: cfg.DHIS2.OrgUnit,
		DeathReview: mapping.Destination{
			Program:      cfg.DHIS2.DeathReview.Program,
			ProgramStage: cfg.DHIS2.DeathReview.Stage,
		},
		MaternalVA: mapping.Destination{
			Program:      cfg.DHIS2.MaternalVA.Program,
			ProgramStage: cfg.DHIS2.MaternalVA.Stage,
		},
		PerinatalVA: mapping.Destination{
			Program:      cfg.DHIS2.PerinatalVA.Program,
			ProgramStage: cfg.DHIS2.PerinatalVA.Stage,
		},
	}

	syncer = services.NewOrchestrator(source, sink, ledger, routeCtx,
		cfg.Sync.Pace(), cfg.Sync.BatchLimit, log)

	cleanup = func() {
		if err := ledger.Close(); err != nil {
			log.Warn("closing ledger: " + err.Error())
		}
		_ = log.Sync()
		syncer = nil
	}

	return nil
}
