// Package connector runs external import connectors.
//
// A connector pulls records from an external source with a Collector,
// translates each record into entities with a Converter and delivers the
// resulting bundle through a transport.Transport. Every run is one unit of
// work:
//
//  1. initiate work and obtain a work id
//  2. collect records
//  3. convert each record, logging and skipping the ones that fail
//  4. assemble a deduplicated, reference-consistent bundle
//  5. send the bundle with the work id
//  6. save the state (last run, work id)
//  7. finalize the work, in error or not
//
// Run repeats this on a schedule, or once when the connector is configured
// to run and terminate.
//
// # Usage
//
//	c, err := connector.New[FeedRecord](collector, converter, connector.Options{
//	    ID:        cfg.Connector.ID,
//	    Name:      cfg.Connector.Name,
//	    Transport: transport.Multi{queue, dir},
//	    Store:     store,
//	    Logger:    logger,
//	})
//	if err != nil {
//	    return err
//	}
//	return c.Run(ctx, cfg.Connector.DurationPeriod.Std(), cfg.Connector.RunAndTerminate)
package connector
