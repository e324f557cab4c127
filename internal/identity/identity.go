package identity

const (
	BrandName = "embedpy"
	// AppSlug is the canonical identifier for user-facing and on-disk state.
	// It intentionally matches the only supported CLI binary name.
	AppSlug = "embedpy"
	CLIName = "embedpy"

	ProjectConfigFileYML  = "embedpy.yml"
	ProjectConfigFileYAML = "embedpy.yaml"
)
