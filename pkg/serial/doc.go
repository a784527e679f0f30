// Package serial opens serial ports in raw mode for a Link.
package serial
