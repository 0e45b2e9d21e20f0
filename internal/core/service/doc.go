// Package service provides domain services for objhost.
//
// ObjectService owns the table of live objects issued to external callers.
// Every object holds one lifecycle handle from the moment its instance is
// created until it is released, so the server keeps running exactly as long
// as callers hold objects:
//
//   - Create acquires a handle, then runs the class factory
//   - Release closes the instance and gives the handle back
//   - Reclaim releases objects whose lease expired without renewal
//   - Close releases everything at process exit
package service
