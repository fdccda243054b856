// Package watch keeps the reference closure of a set of projects loaded
// while their project files are edited.
//
// A Watcher observes the directories of every project in the current
// closure with fsnotify. When a project file is written, created, renamed
// or removed, it waits for Delay without further events and then reloads
// the closure again, following any references that were added.
package watch
