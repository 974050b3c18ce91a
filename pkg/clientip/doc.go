// Package clientip extracts and normalizes the client's network origin for
// audit trails. GetIP resolves the address through common proxy headers;
// Coarse reduces it to a /24 (IPv4) or /48 (IPv6) so audit events carry a
// coarse origin rather than a precise address.
package clientip
