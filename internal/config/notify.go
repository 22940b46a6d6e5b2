package config

// EmailConfig represents the email notification configuration. When
// Enabled is false (or credentials are left blank) the run still records
// snapshots; it just never sends anything.
type EmailConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	SMTPServer string   `mapstructure:"smtp_server"`
	SMTPPort   int      `mapstructure:"smtp_port"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	From       string   `mapstructure:"from_address"`
	To         []string `mapstructure:"to_address"`
	UseTLS     bool     `mapstructure:"use_tls"`

	// TemplateFile optionally replaces the built-in message template.
	TemplateFile string `mapstructure:"template_file"`
}
