// Package localserver provides the Unix socket server for local management.
//
// The protocol is line based: one command per line, one JSON reply per
// line. Commands:
//
//   - status: lifecycle status and object count
//   - shutdown: post a forced stop
//   - reclaim: run one reclaim pass
//   - loglevel [level]: report or change the log level
//   - reload: re-read the configuration file
//
// Access is controlled by file system permissions on the socket, which is
// created with mode 0600.
package localserver
