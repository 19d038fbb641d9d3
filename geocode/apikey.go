// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// APIKeyEnv is the environment variable holding the Geocoding API key.
const APIKeyEnv = "GOOGLE_MAPS_API_KEY"

// DefaultKeyDisplayName is the display name of the key looked up through
// Application Default Credentials.
const DefaultKeyDisplayName = "Hotspots Geocoding Key"

// ResolveAPIKey returns the key from the environment, falling back to
// fetching it with Application Default Credentials.
func ResolveAPIKey(ctx context.Context, projectID, displayName string) (string, error) {
	if key := os.Getenv(APIKeyEnv); key != "" {
		return key, nil
	}

	log.Printf("%s is not set. Attempting to retrieve via ADC...", APIKeyEnv)

	key, err := APIKeyFromADC(ctx, projectID, displayName)
	if err != nil {
		return "", fmt.Errorf("%s is not set and ADC failed: %w", APIKeyEnv, err)
	}

	log.Println("✅ Successfully retrieved Google Maps API Key via ADC")

	return key, nil
}

// APIKeyFromADC lists the API keys of the project and returns the secret of
// the one whose display name matches. An empty projectID is taken from the
// credentials.
func APIKeyFromADC(ctx context.Context, projectID, displayName string) (string, error) {
	if displayName == "" {
		displayName = DefaultKeyDisplayName
	}

	if projectID == "" {
		creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
		if err != nil {
			return "", fmt.Errorf("finding default credentials: %w", err)
		}

		projectID = creds.ProjectID
	}

	if projectID == "" {
		return "", errors.New("no project id in credentials, set --gcp-project")
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	it := client.ListKeys(ctx, &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	})

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.DisplayName != displayName {
			continue
		}

		// ListKeys redacts the secret.
		log.Printf("Found key resource '%s', retrieving secret...", key.Name)

		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: key.Name})
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.KeyString == "" {
			return "", fmt.Errorf("key '%s' has an empty key string", displayName)
		}

		return resp.KeyString, nil
	}

	return "", fmt.Errorf("key with display name '%s' not found in project %s", displayName, projectID)
}
