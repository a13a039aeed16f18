// Copyright 2025 The Frey Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package netbox_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freyproject/clabseed/private/netbox"
)

// testServer records the last request and replies with the configured
// status and body.
type testServer struct {
	*httptest.Server
	lastMethod string
	lastPath   string
	lastQuery  string
	lastAuth   string
	lastBody   map[string]interface{}

	status int
	reply  string
}

func newTestServer(t *testing.T) *testServer {
	s := &testServer{status: http.StatusOK, reply: `{}`}
	s.Server = httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			s.lastMethod = r.Method
			s.lastPath = r.URL.Path
			s.lastQuery = r.URL.RawQuery
			s.lastAuth = r.Header.Get("Authorization")
			s.lastBody = nil
			if r.Body != nil {
				json.NewDecoder(r.Body).Decode(&s.lastBody)
			}
			w.WriteHeader(s.status)
			w.Write([]byte(s.reply))
		},
	))
	t.Cleanup(s.Close)
	return s
}

func newTestClient(t *testing.T, s *testServer) *netbox.Client {
	c, err := netbox.NewClient(netbox.Config{URL: s.URL, Token: "secret"})
	require.NoError(t, err)
	return c
}

func TestGetSiteMiss(t *testing.T) {
	s := newTestServer(t)
	s.reply = `{"count": 0, "results": []}`
	c := newTestClient(t, s)

	site, err := c.GetSite(context.Background(), "evpn-lab")
	require.NoError(t, err)
	assert.Nil(t, site)
	assert.Equal(t, http.MethodGet, s.lastMethod)
	assert.Equal(t, "/api/dcim/sites/", s.lastPath)
	assert.Equal(t, "name=evpn-lab", s.lastQuery)
	assert.Equal(t, "Token secret", s.lastAuth)
}

func TestGetSiteHit(t *testing.T) {
	s := newTestServer(t)
	s.reply = `{"count": 1, "results": [{"id": 7, "name": "evpn-lab"}]}`
	c := newTestClient(t, s)

	site, err := c.GetSite(context.Background(), "evpn-lab")
	require.NoError(t, err)
	require.NotNil(t, site)
	assert.Equal(t, 7, site.ID)
	assert.Equal(t, "evpn-lab", site.Name)
}

func TestCreateManufacturer(t *testing.T) {
	s := newTestServer(t)
	s.status = http.StatusCreated
	s.reply = `{"id": 3, "name": "Arista"}`
	c := newTestClient(t, s)

	m, err := c.CreateManufacturer(context.Background(), "Arista")
	require.NoError(t, err)
	assert.Equal(t, 3, m.ID)
	assert.Equal(t, http.MethodPost, s.lastMethod)
	assert.Equal(t, "/api/dcim/manufacturers/", s.lastPath)
	assert.Equal(t, "Arista", s.lastBody["name"])
	assert.Equal(t, "arista", s.lastBody["slug"])
}

func TestCreateCableTerminations(t *testing.T) {
	s := newTestServer(t)
	s.status = http.StatusCreated
	s.reply = `{"id": 1}`
	c := newTestClient(t, s)

	_, err := c.CreateCable(context.Background(), 11, 22)
	require.NoError(t, err)
	aTerms, ok := s.lastBody["a_terminations"].([]interface{})
	require.True(t, ok)
	require.Len(t, aTerms, 1)
	term := aTerms[0].(map[string]interface{})
	assert.Equal(t, "dcim.interface", term["object_type"])
	assert.Equal(t, float64(11), term["object_id"])
}

func TestSetPrimaryIP(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient(t, s)

	require.NoError(t, c.SetPrimaryIP(context.Background(), 42, 9))
	assert.Equal(t, http.MethodPatch, s.lastMethod)
	assert.Equal(t, "/api/dcim/devices/42/", s.lastPath)
	assert.Equal(t, float64(9), s.lastBody["primary_ip4"])
}

func TestErrorStatusIncludesDetail(t *testing.T) {
	s := newTestServer(t)
	s.status = http.StatusBadRequest
	s.reply = `{"name": ["device with this name already exists."]}`
	c := newTestClient(t, s)

	_, err := c.CreateSite(context.Background(), "evpn-lab")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "already exists")
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	s.reply = `{"count": 12, "results": [{"id": 1, "name": "x"}]}`
	c := newTestClient(t, s)

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, "/api/dcim/sites/", s.lastPath)
	assert.Equal(t, "limit=1", s.lastQuery)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "arista-ceos", netbox.Slugify("Arista cEOS"))
	assert.Equal(t, "network-device", netbox.Slugify("Network Device"))
}
