// Package poidex provides an embeddable client for the poidex point-of-interest
// discovery engine backed by Redis with the search module.
//
// The client wires the same registry, spatial cache, deduplication engine, and
// generative scout the HTTP service runs, without the HTTP layer:
//
//	client, _ := poidex.New(poidex.WithRedis("localhost:6379", ""))
//	defer client.Close()
//
//	res, _ := client.Search().Near(34.7720, 32.4246).Km(2).Do(ctx)
//	fmt.Println(res.Narrative)
//
// Records created through AddPlace or discovered by the scout are merged into
// the shared registry with the same duplicate policies the service applies.
package poidex
