package dto

type SinkOutput struct {
	Name    string
	Version string
	Enabled bool
	Binary  string
}
