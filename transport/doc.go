// Package transport delivers assembled bundles to the platform.
//
// A Transport receives a finished stix.Bundle together with the work
// identifier of the run that produced it. Implementations:
//
//   - Directory writes <path>/<connector>-<work id>.json and prunes files
//     older than the retention period.
//   - RedisQueue pushes a JSON Envelope onto a Redis list (LPUSH) and
//     optionally announces it on a pub/sub channel.
//   - NATSPublisher publishes the Envelope on a subject with a Work-Id
//     header and W3C trace context headers.
//   - Multi fans a bundle out to several transports and joins their errors.
//
// # Redis Key Schema
//
//   - <key> - List of envelopes (LPUSH/BRPOP)
//   - <key>:events - Pub/Sub channel announcing pushed envelopes
//   - connector:<id>:health - String with a TTL refreshed by Heartbeat
//
// # Usage
//
//	queue, err := transport.NewRedisQueue(transport.RedisOptions{
//		URL: "redis://localhost:6379",
//		Key: "opencti:bundles",
//	})
//	if err != nil {
//		return err
//	}
//	defer queue.Close()
//
//	dir, err := transport.NewDirectory(transport.DirectoryOptions{
//		Path:      "/var/lib/connector/out",
//		Connector: "weekly-feed",
//		Retention: 7 * 24 * time.Hour,
//	})
//	if err != nil {
//		return err
//	}
//
//	err = transport.Multi{queue, dir}.Send(ctx, bundle, workID)
package transport
