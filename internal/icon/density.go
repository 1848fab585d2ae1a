package icon

// Density is one Android mipmap bucket: a directory suffix and the target
// square icon dimension in pixels.
type Density struct {
	Suffix string
	Size   int
}

// ShellDensities is the fixed table for the HTML pipeline's mobile-app
// shell project (ldpi 36 ... xxxhdpi 192).
var ShellDensities = []Density{
	{Suffix: "ldpi", Size: 36},
	{Suffix: "mdpi", Size: 48},
	{Suffix: "hdpi", Size: 72},
	{Suffix: "xhdpi", Size: 96},
	{Suffix: "xxhdpi", Size: 144},
	{Suffix: "xxxhdpi", Size: 192},
}

// WrapperDensities is the fixed table for the zip pipeline's Android
// wrapper project (mdpi 48 ... xxxhdpi 192; no ldpi bucket).
var WrapperDensities = []Density{
	{Suffix: "mdpi", Size: 48},
	{Suffix: "hdpi", Size: 72},
	{Suffix: "xhdpi", Size: 96},
	{Suffix: "xxhdpi", Size: 144},
	{Suffix: "xxxhdpi", Size: 192},
}

// MipmapDir returns the mipmap-<suffix> directory name for d.
func (d Density) MipmapDir() string { return "mipmap-" + d.Suffix }
