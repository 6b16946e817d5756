package core

// Color is the foreground color of a screen cell. The platform layer maps
// each value to an ANSI 256-color code.
type Color uint8

// Arena palette.
const (
	ColorDefault      Color = iota
	ColorRed                // Errors
	ColorGreen              // Barriers
	ColorYellow             // Ground body
	ColorOrange             // Ground surface
	ColorGray               // Hints
	ColorBrightYellow       // Agents
	ColorBrightWhite        // HUD
)
