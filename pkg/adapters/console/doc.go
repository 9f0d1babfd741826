// Package console connects a bot to a terminal: stdin lines become updates and
// replies are printed, rendered as markdown when the output is a TTY.
//
// A line starting with CallbackPrefix is delivered as a button press whose data is
// the rest of the line, so inline-keyboard flows can be driven from the keyboard.
package console
