// Package config provides the objhost-cli configuration file.
//
// The file (~/.objhost/cli.yaml by default) holds default connection
// settings and named profiles:
//
//	default_server: 127.0.0.1:5180
//	default_output: table
//	current_profile: local
//	profiles:
//	  local:
//	    socket: /run/objhost/objhost.sock
//	  staging:
//	    server: staging.internal:5180
//	    token: s3cret
//	    ca_file: /etc/objhost/ca.pem
//	    output: json
//
// Command-line flags and OBJHOST_* environment variables override the
// selected profile.
package config
