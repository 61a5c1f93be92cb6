package server

// ANSI colours for the DEV route listing.
const (
	colourGreen   = "\033[32m"
	colourBlue    = "\033[34m"
	colourMagenta = "\033[35m"
	colourYellow  = "\033[33m"
	colourGray    = "\033[90m"
	colourReset   = "\033[0m"
)

var methodColours = map[string]string{
	"GET":     colourGreen,
	"POST":    colourBlue,
	"OPTIONS": colourMagenta,
	"DELETE":  colourYellow,
}

func methodColour(method string) string {
	if colour, ok := methodColours[method]; ok {
		return colour
	}
	return colourGray
}
