// Package environments defines the Azure environments (clouds) a profile can
// target, including the fixed set of well-known public environments.
package environments

import (
	"maps"
	"strings"
)

// EndpointKind identifies one of the service endpoints an environment exposes.
type EndpointKind string

const (
	// EndpointServiceManagement is the legacy Service Management (RDFE) endpoint.
	EndpointServiceManagement EndpointKind = "serviceManagement"
	// EndpointResourceManager is the Azure Resource Manager endpoint.
	EndpointResourceManager EndpointKind = "resourceManager"
	// EndpointActiveDirectory is the token authority endpoint.
	EndpointActiveDirectory EndpointKind = "activeDirectory"
	EndpointGallery         EndpointKind = "gallery"
	EndpointGraph           EndpointKind = "graph"
	EndpointPortal          EndpointKind = "portal"
)

const (
	AzurePublicName       = "AzureCloud"
	AzureChinaCloudName   = "AzureChinaCloud"
	AzureUSGovernmentName = "AzureUSGovernment"
)

// CommonTenant is the tenant used for the initial tenant-discovery token.
const CommonTenant = "common"

// Environment is a named mapping of endpoint kinds to URLs.
type Environment struct {
	Name      string                  `json:"name"`
	Endpoints map[EndpointKind]string `json:"endpoints"`
}

// Endpoint returns the URL for the given endpoint kind, or "" when the
// environment does not define it.
func (e Environment) Endpoint(kind EndpointKind) string {
	return e.Endpoints[kind]
}

// Clone returns a copy of the environment with its own endpoint map.
func (e Environment) Clone() Environment {
	clone := Environment{Name: e.Name}
	if e.Endpoints != nil {
		clone.Endpoints = maps.Clone(e.Endpoints)
	}
	return clone
}

func AzurePublic() Environment {
	return Environment{
		Name: AzurePublicName,
		Endpoints: map[EndpointKind]string{
			EndpointServiceManagement: "https://management.core.windows.net/",
			EndpointResourceManager:   "https://management.azure.com/",
			EndpointActiveDirectory:   "https://login.microsoftonline.com/",
			EndpointGallery:           "https://gallery.azure.com/",
			EndpointGraph:             "https://graph.windows.net/",
			EndpointPortal:            "https://portal.azure.com",
		},
	}
}

func AzureChina() Environment {
	return Environment{
		Name: AzureChinaCloudName,
		Endpoints: map[EndpointKind]string{
			EndpointServiceManagement: "https://management.core.chinacloudapi.cn/",
			EndpointResourceManager:   "https://management.chinacloudapi.cn/",
			EndpointActiveDirectory:   "https://login.chinacloudapi.cn/",
			EndpointGallery:           "https://gallery.chinacloudapi.cn/",
			EndpointGraph:             "https://graph.chinacloudapi.cn/",
			EndpointPortal:            "https://portal.azure.cn",
		},
	}
}

func AzureGovernment() Environment {
	return Environment{
		Name: AzureUSGovernmentName,
		Endpoints: map[EndpointKind]string{
			EndpointServiceManagement: "https://management.core.usgovcloudapi.net/",
			EndpointResourceManager:   "https://management.usgovcloudapi.net/",
			EndpointActiveDirectory:   "https://login.microsoftonline.us/",
			EndpointGallery:           "https://gallery.usgovcloudapi.net/",
			EndpointGraph:             "https://graph.windows.net/",
			EndpointPortal:            "https://portal.azure.us",
		},
	}
}

// Public returns the well-known public environments. The returned values are
// fresh copies; the well-known set itself can never be modified.
func Public() []Environment {
	return []Environment{AzurePublic(), AzureChina(), AzureGovernment()}
}

// IsPublic reports whether name identifies one of the well-known public
// environments. The comparison is case-insensitive.
func IsPublic(name string) bool {
	for _, env := range []string{AzurePublicName, AzureChinaCloudName, AzureUSGovernmentName} {
		if strings.EqualFold(env, name) {
			return true
		}
	}
	return false
}
