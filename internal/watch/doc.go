// Package watch keeps a directory of markdown documents rewritten.
//
// A Watcher registers every directory below its root with fsnotify, debounces
// change events per file and hands settled files to a docs.Processor. A
// gocron job can sweep the whole tree periodically. Events caused by the
// watcher's own writes are ignored for one debounce window.
package watch
