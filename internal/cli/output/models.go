package output

// PrepareResponse reports a finished preparation run.
type PrepareResponse struct {
	Python       string `json:"python"`
	SitePackages string `json:"site_packages"`
	Manifest     string `json:"manifest"`
	UsedFallback bool   `json:"used_fallback,omitempty"`
}

// ManifestResponse echoes a validated on-disk manifest.
type ManifestResponse struct {
	Path         string `json:"path"`
	Python       string `json:"python"`
	SitePackages string `json:"site_packages"`
}
