package cfg

type Cfg struct {
	// Scrape configuration
	ProfilePath  string
	OutputPath   string
	SnapshotPath string
	URL          string
	MaxItems     int
	Order        string

	// Serve mode
	Serve    bool
	Port     string
	BaseUrl  string
	Interval int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
