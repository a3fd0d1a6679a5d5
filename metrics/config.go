package metrics

type Config struct {
	ListenPort  string `yaml:"ListenPort"`
	MetricsPath string `yaml:"MetricsPath"`
}
