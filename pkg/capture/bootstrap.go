package capture

import (
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"

	"github.com/pragmaticfish/sushify/internal/config"
	"github.com/pragmaticfish/sushify/internal/dashboard"
	"github.com/pragmaticfish/sushify/internal/logging"
	"github.com/pragmaticfish/sushify/internal/metrics"
	"github.com/pragmaticfish/sushify/internal/storage"
	"github.com/pragmaticfish/sushify/pkg/exchange"
)

// FromConfig assembles the whole capture pipeline from a loaded
// configuration: logging, the optional metrics endpoint, the archive sink
// and the addon itself. It is the entry point for host engines embedding
// capture and refuses to build an addon from an invalid configuration.
func FromConfig(c *config.Config) (*Addon, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if c.LogOutput == "file" {
		if err := logging.InitializeFileLogger(c.LogLevel, c.SessionDir); err != nil {
			return nil, err
		}
	} else {
		if err := logging.InitializeLogger(c.LogLevel); err != nil {
			return nil, err
		}
	}

	archive, err := newArchive(c)
	if err != nil {
		return nil, err
	}

	if c.Metrics.Enabled {
		go metrics.InitializeHTTP(c.Metrics.Bind)
	}

	client := dashboard.New(c.DashboardURL,
		dashboard.WithStatusTimeout(c.StatusTimeout()),
		dashboard.WithPushTimeout(c.PushTimeout()),
	)

	return New(Config{
		Classifier: NewClassifier(c.ProviderBaseURLs(), c.CaptureMethods),
		Dashboard:  client,
		Archive:    archive,
		Exchange: exchange.Options{
			BodyMaxBytes:    c.BodyMaxBytes,
			RedactHeaders:   c.RedactHeaders,
			RedactJSONPaths: c.RedactJSONPaths,
		},
		Workers:         c.Delivery.Workers,
		QueueSize:       c.Delivery.QueueSize,
		TrackerMaxFlows: c.TrackerMaxFlows,
	})
}

func newArchive(c *config.Config) (storage.Storage, error) {
	switch c.ArchiveType {
	case "none":
		return nil, nil
	case "stdout":
		logging.L.Info("Using stdout archive backend")
		return &storage.StdoutStorage{}, nil
	case "elasticsearch":
		elasticConfig := elasticsearch.Config{
			Addresses:              c.Elasticsearch.Addresses,
			Username:               c.Elasticsearch.Username,
			Password:               c.Elasticsearch.Password,
			CloudID:                c.Elasticsearch.CloudID,
			APIKey:                 c.Elasticsearch.APIKey,
			ServiceToken:           c.Elasticsearch.ServiceToken,
			CertificateFingerprint: c.Elasticsearch.CertificateFingerprint,
		}
		es, err := elasticsearch.NewClient(elasticConfig)
		if err != nil {
			return nil, fmt.Errorf("error in connecting to Elasticsearch: %w", err)
		}

		esInfo, err := es.Info()
		if err != nil {
			return nil, fmt.Errorf("error in getting info from Elasticsearch: %w", err)
		}

		logging.L.Info("Connected to Elasticsearch", zap.String("info", esInfo.String()))
		return &storage.ElasticStorage{ES: es, Index: c.ArchiveIndex}, nil
	default:
		return nil, fmt.Errorf("unknown archive type: %s", c.ArchiveType)
	}
}
