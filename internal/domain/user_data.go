package domain

// Page is an open tab of the file browser / Onglet ouvert du navigateur de fichiers
type Page struct {
	Timestamps
	ID            string
	UserID        int64
	EnvironmentID *string
	Title         string
	Path          string
	Position      int
}

// OwnedBy reports whether userID owns the page.
func (p *Page) OwnedBy(userID int64) bool { return p.UserID == userID }

// EnvironmentKind names the connector serving an environment.
type EnvironmentKind string

const (
	EnvironmentLocal  EnvironmentKind = "local"
	EnvironmentFTP    EnvironmentKind = "ftp"
	EnvironmentSFTP   EnvironmentKind = "sftp"
	EnvironmentWebDAV EnvironmentKind = "webdav"
	EnvironmentCloud  EnvironmentKind = "cloud"
)

// Environment is a file system data source a user browses.
type Environment struct {
	Timestamps
	ID     string
	UserID int64
	Name   string
	Kind   EnvironmentKind
	Root   string
	Secret string // connector credential, write-only
}

// OwnedBy reports whether userID owns the environment.
func (e *Environment) OwnedBy(userID int64) bool { return e.UserID == userID }

// Preferences are per-user browser settings.
type Preferences struct {
	Timestamps
	ID         string
	UserID     int64
	Theme      string
	Language   string
	ViewMode   string
	ShowHidden bool
	PageSize   int
}

// DefaultPreferences returns the settings of a user who never saved any.
func DefaultPreferences(userID int64) Preferences {
	return Preferences{
		UserID:   userID,
		Theme:    "system",
		Language: "en",
		ViewMode: "list",
		PageSize: 50,
	}
}
