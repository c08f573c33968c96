package registry

import (
	"regexp"
	"strings"
)

var (
	vendorLinePattern = regexp.MustCompile(`^([0-9a-fA-F]{4})\s(.+)$`)
	deviceLinePattern = regexp.MustCompile(`^\t([0-9a-fA-F]{4})\s(.+)$`)
)

// ParseStats describes what the parser did with its input
type ParseStats struct {
	// Lines is the number of lines read, including blank lines and comments
	Lines int

	// Vendors is the number of vendor lines accepted
	Vendors int

	// Devices is the number of device lines accepted
	Devices int

	// Nested is the number of lines with two or more leading tabs
	Nested int

	// Skipped is the number of malformed vendor lines, malformed device
	// lines and device lines without a current vendor
	Skipped int
}

// Parse converts usb.ids text into a Registry. It never fails: lines that
// don't match the grammar are skipped. Repeated IDs overwrite earlier ones.
func Parse(text string) Registry {
	reg, _ := ParseWithStats(text)
	return reg
}

// ParseWithStats is like Parse but also reports line counts
func ParseWithStats(text string) (Registry, ParseStats) {
	p := &parser{result: Registry{}}
	for _, line := range strings.Split(text, "\n") {
		p.parseLine(line)
	}
	return p.result, p.stats
}

type parser struct {
	result Registry
	stats  ParseStats

	// currentVendor is empty while no valid vendor line is in effect
	currentVendor string
}

func (p *parser) parseLine(line string) {
	p.stats.Lines++

	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return
	}

	switch {
	case !strings.HasPrefix(line, "\t"):
		p.parseVendorLine(line)
	case strings.HasPrefix(line, "\t\t"):
		p.stats.Nested++
	default:
		p.parseDeviceLine(line)
	}
}

func (p *parser) parseVendorLine(line string) {
	match := vendorLinePattern.FindStringSubmatch(line)
	if match == nil {
		p.currentVendor = ""
		p.stats.Skipped++
		return
	}

	id := strings.ToLower(match[1])
	p.result[id] = Vendor{
		ID:      id,
		Name:    strings.TrimSpace(match[2]),
		Devices: map[string]Device{},
	}
	p.currentVendor = id
	p.stats.Vendors++
}

func (p *parser) parseDeviceLine(line string) {
	if p.currentVendor == "" {
		p.stats.Skipped++
		return
	}

	match := deviceLinePattern.FindStringSubmatch(line)
	if match == nil {
		p.stats.Skipped++
		return
	}

	id := strings.ToLower(match[1])
	p.result[p.currentVendor].Devices[id] = Device{
		ID:   id,
		Name: strings.TrimSpace(match[2]),
	}
	p.stats.Devices++
}
