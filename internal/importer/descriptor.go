package importer

import "strings"

// The descriptor's location/organizer/image fields arrive in several
// shapes depending on platform. All decoding of those untyped fields
// lives here so the rest of the pipeline sees plain strings.

// descriptorLocation returns the display location string and, when the
// descriptor carries a structured address, the locality (city) it names.
func descriptorLocation(loc interface{}) (display, locality string) {
	switch v := loc.(type) {
	case string:
		return strings.TrimSpace(v), ""
	case map[string]interface{}:
		name := stringField(v, "name")
		addrDisplay, addrLocality := descriptorAddress(v["address"])
		switch {
		case name != "" && addrDisplay != "":
			return name + ", " + addrDisplay, addrLocality
		case name != "":
			return name, addrLocality
		default:
			return addrDisplay, addrLocality
		}
	case []interface{}:
		// Hybrid events list physical and virtual locations; take the
		// first that yields anything.
		for _, item := range v {
			if d, l := descriptorLocation(item); d != "" || l != "" {
				return d, l
			}
		}
	}
	return "", ""
}

func descriptorAddress(addr interface{}) (display, locality string) {
	switch v := addr.(type) {
	case string:
		return strings.TrimSpace(v), ""
	case map[string]interface{}:
		locality = stringField(v, "addressLocality")
		parts := make([]string, 0, 3)
		for _, key := range []string{"streetAddress", "addressLocality", "postalCode"} {
			if s := stringField(v, key); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", "), locality
	}
	return "", ""
}

// descriptorOrganizers returns organizer names; one or many, joined later.
func descriptorOrganizers(org interface{}) []string {
	switch v := org.(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	case map[string]interface{}:
		if name := stringField(v, "name"); name != "" {
			return []string{name}
		}
	case []interface{}:
		var names []string
		for _, item := range v {
			names = append(names, descriptorOrganizers(item)...)
		}
		return names
	}
	return nil
}

func descriptorImage(img interface{}) string {
	switch v := img.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]interface{}:
		return stringField(v, "url")
	case []interface{}:
		for _, item := range v {
			if s := descriptorImage(item); s != "" {
				return s
			}
		}
	}
	return ""
}
