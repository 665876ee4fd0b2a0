// Package geoip resolves viewer addresses to a coarse location for view
// analytics. A missing database disables lookups rather than failing startup.
package geoip

import (
	"log/slog"
	"net"
	"strings"

	"github.com/oschwald/maxminddb-golang"
)

type Location struct {
	Country string
	City    string
}

type Resolver struct {
	db *maxminddb.Reader
}

type cityRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
}

func New(dbPath string) *Resolver {
	if dbPath == "" {
		return &Resolver{}
	}
	db, err := maxminddb.Open(dbPath)
	if err != nil {
		slog.Warn("geoip: open database failed, lookups disabled", "path", dbPath, "error", err)
		return &Resolver{}
	}
	slog.Info("geoip: database loaded", "path", dbPath, "type", db.Metadata.DatabaseType)
	return &Resolver{db: db}
}

func (r *Resolver) Enabled() bool { return r != nil && r.db != nil }

// Locate accepts a bare IP or a host:port pair. Private and unparseable
// addresses resolve to the zero Location.
func (r *Resolver) Locate(addr string) Location {
	if !r.Enabled() {
		return Location{}
	}
	ip := parseIP(addr)
	if ip == nil || ip.IsPrivate() || ip.IsLoopback() {
		return Location{}
	}
	var rec cityRecord
	if err := r.db.Lookup(ip, &rec); err != nil {
		slog.Debug("geoip: lookup failed", "ip", ip.String(), "error", err)
		return Location{}
	}
	return Location{Country: rec.Country.ISOCode, City: rec.City.Names["en"]}
}

func parseIP(addr string) net.IP {
	addr = strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	return net.ParseIP(addr)
}

func (r *Resolver) Close() error {
	if r.Enabled() {
		return r.db.Close()
	}
	return nil
}
