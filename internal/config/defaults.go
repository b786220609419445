package config

// DefaultNamespace is the OBO Library base IRI.
const DefaultNamespace = "http://purl.obolibrary.org/obo/"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60
	}
	if cfg.Server.RateLimit.RequestsPerSecond > 0 && cfg.Server.RateLimit.Burst == 0 {
		cfg.Server.RateLimit.Burst = int(cfg.Server.RateLimit.RequestsPerSecond) + 1
	}
	if cfg.Models.Directory == "" {
		cfg.Models.Directory = "/usr/local/var/biokgvec/models"
	}
	if cfg.Downloads.Directory == "" {
		cfg.Downloads.Directory = "/usr/local/var/biokgvec/downloads"
	}
	if cfg.Ontologies == nil {
		cfg.Ontologies = []OntologyConfig{
			{Prefix: "GO", Namespace: DefaultNamespace},
			{Prefix: "HP", Namespace: DefaultNamespace},
		}
	}
	for i := range cfg.Ontologies {
		if cfg.Ontologies[i].Namespace == "" {
			cfg.Ontologies[i].Namespace = DefaultNamespace
		}
	}
	if cfg.Query.DefaultTopN == 0 {
		cfg.Query.DefaultTopN = 10
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
