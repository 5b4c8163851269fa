package metrics

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"powerposition/config"
	"powerposition/logger"
)

type putMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Publisher logs metrics and pushes them to CloudWatch when a client is set.
type Publisher struct {
	client    putMetricDataAPI
	namespace string
	log       *logger.Entry
}

// NewPublisher builds a CloudWatch backed publisher. When CloudWatch is
// disabled or AWS configuration cannot be loaded the publisher only logs.
func NewPublisher(ctx context.Context, cfg config.CloudWatchConfig, log *logger.Log) *Publisher {
	p := &Publisher{namespace: cfg.Namespace, log: log.WithComponent("cloudwatch")}
	if p.namespace == "" {
		p.namespace = "PowerPosition"
	}
	if !cfg.Enabled {
		p.log.Debug("cloudwatch disabled; metrics are log-only")
		return p
	}

	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		p.log.WithError(err).Warn("failed to load AWS configuration; CloudWatch metrics disabled")
		return p
	}
	p.client = cloudwatch.NewFromConfig(awsCfg)
	p.log.WithFields(logger.Fields{"region": awsCfg.Region, "namespace": p.namespace}).Info("initialized CloudWatch client")
	return p
}

func newPublisherWithClient(client putMetricDataAPI, namespace string, log *logger.Log) *Publisher {
	return &Publisher{client: client, namespace: namespace, log: log.WithComponent("cloudwatch")}
}

// Emit logs the metric and publishes it. Publishing failures are logged and
// never reach the caller.
func (p *Publisher) Emit(ctx context.Context, component, metric string, value float64, fields logger.Fields) {
	entry := p.log.WithFields(logger.Fields{"metric_component": component, "metric": metric, "value": value})
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Debug("metric")

	if p.client == nil {
		return
	}

	unit := cwtypes.StandardUnitCount
	if raw, ok := fields["unit"].(string); ok {
		unit = metricUnitFromString(raw)
	}

	_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(p.namespace),
		MetricData: []cwtypes.MetricDatum{{
			MetricName: aws.String(metric),
			Dimensions: dimensions(component, fields),
			Unit:       unit,
			Value:      aws.Float64(value),
		}},
	})
	if err != nil {
		p.log.WithError(err).WithFields(logger.Fields{"metric": metric}).Warn("failed to publish CloudWatch metric")
	}
}

func dimensions(component string, fields logger.Fields) []cwtypes.Dimension {
	dims := []cwtypes.Dimension{{Name: aws.String("component"), Value: aws.String(component)}}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "unit" || k == "cycle_id" {
			continue
		}
		s, ok := fields[k].(string)
		if !ok || s == "" {
			continue
		}
		dims = append(dims, cwtypes.Dimension{Name: aws.String(k), Value: aws.String(s)})
	}
	return dims
}

func metricUnitFromString(unit string) cwtypes.StandardUnit {
	switch strings.ToLower(unit) {
	case "milliseconds", "ms":
		return cwtypes.StandardUnitMilliseconds
	case "percent":
		return cwtypes.StandardUnitPercent
	default:
		return cwtypes.StandardUnitCount
	}
}

