// Package publishsettings parses the legacy .publishsettings file format:
// an XML document carrying management certificates and the subscriptions
// they are authorized for.
package publishsettings

import (
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
)

// Subscription is one subscription entry from a publish settings file.
type Subscription struct {
	ID   string
	Name string

	// ManagementCertificate is the decoded certificate material authorizing
	// access to the subscription.
	ManagementCertificate []byte

	ServiceManagementURL string
}

type publishData struct {
	XMLName  xml.Name         `xml:"PublishData"`
	Profiles []publishProfile `xml:"PublishProfile"`
}

type publishProfile struct {
	SchemaVersion         string              `xml:"SchemaVersion,attr"`
	URL                   string              `xml:"Url,attr"`
	ManagementCertificate string              `xml:"ManagementCertificate,attr"`
	Subscriptions         []publishProfileSub `xml:"Subscription"`
}

type publishProfileSub struct {
	ID                    string `xml:"Id,attr"`
	Name                  string `xml:"Name,attr"`
	ServiceManagementURL  string `xml:"ServiceManagementUrl,attr"`
	ManagementCertificate string `xml:"ManagementCertificate,attr"`
}

// Parse decodes a publish settings document. Both schema versions are
// supported: 1.0 carries one certificate on the profile shared by all
// subscriptions, 2.0 carries a certificate per subscription.
func Parse(data []byte) ([]Subscription, error) {
	var doc publishData
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing publish settings: %w", err)
	}

	if len(doc.Profiles) == 0 {
		return nil, errors.New("publish settings file contains no publish profile")
	}

	var subscriptions []Subscription
	for _, p := range doc.Profiles {
		for _, sub := range p.Subscriptions {
			certData := sub.ManagementCertificate
			if certData == "" {
				certData = p.ManagementCertificate
			}
			if certData == "" {
				return nil, fmt.Errorf("subscription '%s' has no management certificate", sub.ID)
			}

			material, err := base64.StdEncoding.DecodeString(certData)
			if err != nil {
				return nil, fmt.Errorf("decoding management certificate for '%s': %w", sub.ID, err)
			}

			url := sub.ServiceManagementURL
			if url == "" {
				url = p.URL
			}

			subscriptions = append(subscriptions, Subscription{
				ID:                    sub.ID,
				Name:                  sub.Name,
				ManagementCertificate: material,
				ServiceManagementURL:  url,
			})
		}
	}

	return subscriptions, nil
}
