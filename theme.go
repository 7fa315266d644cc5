package replx

import "strconv"

type rgb struct {
	r int
	g int
	b int
}

type uiTheme struct {
	Name        string
	PromptFG    rgb
	StderrFG    rgb
	ErrorFG     rgb
	MetaFG      rgb
	StdinFG     rgb
	SpinnerFG   rgb
	CandidateFG rgb
	SelectedBG  rgb
	SelectedFG  rgb
}

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiDim    = "\x1b[2m"
	ansiItalic = "\x1b[3m"
)

// DefaultTheme is used when no theme is configured or the configured
// name is unknown.
const DefaultTheme = "outrun"

var uiThemes = map[string]uiTheme{
	"outrun": {
		Name:        "outrun",
		PromptFG:    rgb{r: 255, g: 255, b: 255},
		StderrFG:    rgb{r: 255, g: 91, b: 189},
		ErrorFG:     rgb{r: 255, g: 107, b: 107},
		MetaFG:      rgb{r: 154, g: 163, b: 178},
		StdinFG:     rgb{r: 154, g: 163, b: 178},
		SpinnerFG:   rgb{r: 110, g: 136, b: 255},
		CandidateFG: rgb{r: 154, g: 182, b: 255},
		SelectedBG:  rgb{r: 0, g: 229, b: 255},
		SelectedFG:  rgb{r: 10, g: 13, b: 23},
	},
	"gruvbox": {
		Name:        "gruvbox",
		PromptFG:    rgb{r: 255, g: 255, b: 255},
		StderrFG:    rgb{r: 211, g: 134, b: 155},
		ErrorFG:     rgb{r: 251, g: 73, b: 52},
		MetaFG:      rgb{r: 146, g: 131, b: 116},
		StdinFG:     rgb{r: 146, g: 131, b: 116},
		SpinnerFG:   rgb{r: 131, g: 165, b: 152},
		CandidateFG: rgb{r: 131, g: 165, b: 152},
		SelectedBG:  rgb{r: 250, g: 189, b: 47},
		SelectedFG:  rgb{r: 40, g: 40, b: 40},
	},
	"tokyo-midnight": {
		Name:        "tokyo-midnight",
		PromptFG:    rgb{r: 255, g: 255, b: 255},
		StderrFG:    rgb{r: 187, g: 154, b: 247},
		ErrorFG:     rgb{r: 247, g: 118, b: 142},
		MetaFG:      rgb{r: 127, g: 133, b: 163},
		StdinFG:     rgb{r: 127, g: 133, b: 163},
		SpinnerFG:   rgb{r: 122, g: 162, b: 247},
		CandidateFG: rgb{r: 125, g: 207, b: 255},
		SelectedBG:  rgb{r: 122, g: 162, b: 247},
		SelectedFG:  rgb{r: 26, g: 27, b: 38},
	},
}

func themeForName(name string) uiTheme {
	if name == "" {
		name = DefaultTheme
	}
	if theme, ok := uiThemes[name]; ok {
		return theme
	}
	return uiThemes[DefaultTheme]
}

func ansiFgRGB(c rgb) string {
	return "\x1b[38;2;" + strconv.Itoa(c.r) + ";" + strconv.Itoa(c.g) + ";" + strconv.Itoa(c.b) + "m"
}

func ansiBgRGB(c rgb) string {
	return "\x1b[48;2;" + strconv.Itoa(c.r) + ";" + strconv.Itoa(c.g) + ";" + strconv.Itoa(c.b) + "m"
}
