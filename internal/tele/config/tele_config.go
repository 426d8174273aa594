package tele_config

type Config struct { //nolint:maligned
	Enabled      bool   `hcl:"enable"`
	LogDebug     bool   `hcl:"log_debug"`
	MqttBroker   string `hcl:"mqtt_broker"`
	MqttPassword string `hcl:"mqtt_password"`
	ClientID     string `hcl:"client_id"`
	TopicPrefix  string `hcl:"topic_prefix"`
	KeepaliveSec int    `hcl:"keepalive_sec"`
	PingTimeout  int    `hcl:"ping_timeout_sec"`
	ReconnectSec int    `hcl:"reconnect_sec"`
}
