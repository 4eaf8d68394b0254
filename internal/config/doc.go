/*
Package config loads process configuration through a layered koanf stack:
struct defaults, an optional YAML file, then environment variables, each
layer overriding the last.

	cfg, err := config.LoadWithKoanf()

Environment variables use the same dotted-to-upper-snake transform as
cartographus: TWITCH_CLIENT_ID -> twitch.client_id, INGEST_CHUNK_SECONDS
-> ingest.chunk_seconds. A config file is searched for at $CONFIG_PATH,
then ./config.yaml, then /etc/vodhunter/config.yaml.
*/
package config
