package environments

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsPublic(t *testing.T) {
	require.True(t, IsPublic("AzureCloud"))
	require.True(t, IsPublic("azurecloud"))
	require.True(t, IsPublic("AZURECHINACLOUD"))
	require.False(t, IsPublic("ContosoCloud"))
	require.False(t, IsPublic(""))
}

func TestPublicReturnsFreshCopies(t *testing.T) {
	first := Public()
	first[0].Endpoints[EndpointResourceManager] = "https://tampered.example/"

	second := Public()
	require.Equal(t, "https://management.azure.com/", second[0].Endpoint(EndpointResourceManager))
}
