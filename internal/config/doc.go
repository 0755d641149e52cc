// Package config loads the runtime configuration of the dashboard backend.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. A YAML file: $ARVAIA_CONFIG_FILE, ./config.yaml or ./configs/config.yaml
//  3. Default values from struct tags (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern ARVAIA_<SECTION>_<FIELD>:
//
//	ARVAIA_SERVER_PORT=8080
//	ARVAIA_DATASET_SOURCE=xlsx
//	ARVAIA_DATASET_FILE=data/distribuzione_2025.xlsx
//	ARVAIA_DATASET_WEEK_ONE_MONDAY=2024-12-30
//	ARVAIA_INSIGHTS_API_KEYS=key-one,key-two
//
// The week one Monday must be updated for every season; it is the only
// place the calendar origin comes from.
package config
