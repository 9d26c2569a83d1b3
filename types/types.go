package types

// Sheet represents an uploaded sprite sheet in the database.
type Sheet struct {
	Id          string `db:"id"`
	MimeType    string `db:"mime"`
	User        string `db:"user"`
	Timestamp   uint64 `db:"uploaded_at"`
	UploadedAs  string `db:"uploaded_as"`
	Extension   string `db:"ext"`
	Width       int    `db:"width"`
	Height      int    `db:"height"`
	DeleteToken string `db:"delete_token" json:"-"`
}

// Export is one export action recorded against a sheet.
type Export struct {
	SheetId    string `db:"sheet_id"`
	Kind       string `db:"kind"`
	Filename   string `db:"filename"`
	FrameCount int    `db:"frame_count"`
	Timestamp  uint64 `db:"exported_at"`
}
