// Package geo enriches IP answers from a local GeoLite2 ASN database.
package geo

import (
	"fmt"
	"net"
	"os"

	"github.com/oschwald/geoip2-golang"

	"speedwatch/internal/model"
)

// SystemPaths are the locations distro packages install the ASN database to.
var SystemPaths = []string{
	"/usr/share/GeoIP/GeoLite2-ASN.mmdb",
	"/usr/local/share/GeoIP/GeoLite2-ASN.mmdb",
	"/var/lib/GeoIP/GeoLite2-ASN.mmdb",
}

// Enricher looks up ASN data. The zero value searches SystemPaths only.
type Enricher struct {
	// Path is tried before SystemPaths. A configured path that does not exist
	// is an error; missing system paths are not.
	Path string
}

// Enrich fills info.ASN and info.ASNOrg. It reports false when no database
// was found or the address is not in it.
func (e Enricher) Enrich(info *model.IPInfo) (bool, error) {
	ip := net.ParseIP(info.IP)
	if ip == nil {
		return false, nil
	}
	db, err := e.open()
	if err != nil || db == nil {
		return false, err
	}
	defer db.Close()

	rec, err := db.ASN(ip)
	if err != nil {
		return false, fmt.Errorf("asn lookup %s: %w", info.IP, err)
	}
	if rec == nil || rec.AutonomousSystemNumber == 0 {
		return false, nil
	}
	info.ASN = rec.AutonomousSystemNumber
	info.ASNOrg = rec.AutonomousSystemOrganization
	return true, nil
}

// Database returns the path that would be opened, or "" when none exists.
func (e Enricher) Database() string {
	if e.Path != "" {
		if _, err := os.Stat(e.Path); err == nil {
			return e.Path
		}
		return ""
	}
	for _, p := range SystemPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (e Enricher) open() (*geoip2.Reader, error) {
	if e.Path != "" {
		db, err := geoip2.Open(e.Path)
		if err != nil {
			return nil, fmt.Errorf("open geoip database: %w", err)
		}
		return db, nil
	}
	for _, p := range SystemPaths {
		if db, err := geoip2.Open(p); err == nil {
			return db, nil
		}
	}
	return nil, nil
}
