package cfg

type Cfg struct {
	// Application configuration
	ProfilesDir  string
	Port         string
	APIAccessKey string
	BodyLimit    int64

	// Tree conventions
	AttrKey string
	TextKey string

	// One-shot mode
	File        string
	Profile     string
	ContentType string

	// Application metadata
	Debug   bool
	Version string
}

// OneShot reports whether a single file should be normalized instead of
// starting the server.
func (c *Cfg) OneShot() bool {
	return c.File != ""
}
