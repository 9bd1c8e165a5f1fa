package maml

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type Endpoint struct {
	Host string
	Port int
}

type tlsEndpoint struct {
	Host string `maml:"tlsHost"`
	Cert string `maml:"certFile"`
}

type owner struct {
	ID    int
	Email string
}

type site struct {
	Region string `maml:"siteRegion"`
}

type Placement struct {
	Endpoint
	site
}

type Limits struct {
	Burst int
}

type Quotas struct {
	Burst int
}

type hidden struct {
	Zone string
}

type (
	plainService struct {
		Name string
		Endpoint
	}
	pointerService struct {
		Name string
		*Endpoint
	}
	taggedService struct {
		Name string
		tlsEndpoint
	}
	shadowedService struct {
		Host string
		Endpoint
	}
	retypedService struct {
		ID string
		owner
	}
	placedService struct {
		Name string
		*Placement
	}
	limitedService struct {
		Burst int
		Limits
		Quotas
	}
	firstWinsService struct {
		Limits
		Quotas
	}
	hiddenService struct {
		Name string
		*hidden
	}
)

func TestUnmarshal_EmbeddedStructs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		target  any
		want    any
		wantErr string
	}{
		{
			name:   "promoted fields",
			input:  `{ Name: "api", Host: "10.0.0.1", Port: 8080 }`,
			target: &plainService{},
			want:   &plainService{Name: "api", Endpoint: Endpoint{Host: "10.0.0.1", Port: 8080}},
		},
		{
			name:   "embedded pointer is allocated",
			input:  `{ Name: "api", Port: 443 }`,
			target: &pointerService{},
			want:   &pointerService{Name: "api", Endpoint: &Endpoint{Port: 443}},
		},
		{
			name:   "embedded pointer stays nil without input",
			input:  `{ Name: "api" }`,
			target: &pointerService{},
			want:   &pointerService{Name: "api"},
		},
		{
			name:   "tags on promoted fields",
			input:  "{\n  Name: \"edge\"\n  tlsHost: \"edge.local\"\n  certfile: \"/etc/edge.pem\"\n}",
			target: &taggedService{},
			want:   &taggedService{Name: "edge", tlsEndpoint: tlsEndpoint{Host: "edge.local", Cert: "/etc/edge.pem"}},
		},
		{
			name:   "outer field shadows promoted field of the same type",
			input:  `{ Host: "outer", Port: 1 }`,
			target: &shadowedService{},
			want:   &shadowedService{Host: "outer", Endpoint: Endpoint{Port: 1}},
		},
		{
			name:   "outer field shadows promoted field of another type",
			input:  `{ ID: "svc-7", Email: "ops@example.com" }`,
			target: &retypedService{},
			want:   &retypedService{ID: "svc-7", owner: owner{Email: "ops@example.com"}},
		},
		{
			name:   "two levels of embedding behind a pointer",
			input:  `{ Name: "db", host: "db.internal", SITEREGION: "eu-west" }`,
			target: &placedService{},
			want: &placedService{Name: "db", Placement: &Placement{
				Endpoint: Endpoint{Host: "db.internal"},
				site:     site{Region: "eu-west"},
			}},
		},
		{
			name:   "shallower field wins a name collision",
			input:  `{ Burst: 5 }`,
			target: &limitedService{},
			want:   &limitedService{Burst: 5},
		},
		{
			name:   "first declared field wins at equal depth",
			input:  `{ burst: 9 }`,
			target: &firstWinsService{},
			want:   &firstWinsService{Limits: Limits{Burst: 9}},
		},
		{
			name:    "embedded pointer to unexported struct",
			input:   `{ Name: "x", Zone: "north" }`,
			target:  &hiddenService{},
			wantErr: "maml: cannot set embedded pointer to unexported struct maml.hidden",
		},
		{
			name:   "embedded pointer to unexported struct without input",
			input:  `{ Name: "x" }`,
			target: &hiddenService{},
			want:   &hiddenService{Name: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Unmarshal([]byte(tt.input), tt.target)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, tt.target)
		})
	}
}
