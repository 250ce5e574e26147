// Quota is the rate limiting, usage tracking and tier policy service.
//
// It answers three questions for an application's API layer: may this
// caller hit this endpoint again right now, has this user used up what
// their subscription tier allows, and does their tier include a feature.
//
// Usage:
//
//	# Start the server
//	quota run --config config.yaml
//
//	# Check a configuration file
//	quota validate --config config.yaml
//
//	# Print the tier table
//	quota tiers --format json
//
//	# Evaluate a tier limit offline
//	quota check --tier free --metric aiGenerations --usage 5
//
//	# Issue a bearer token for testing
//	quota keys token --user user-1 --tier pro
package main

func main() {
	Execute()
}
