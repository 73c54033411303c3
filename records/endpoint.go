// SPDX-FileCopyrightText: 2025 The Corral Authors
// SPDX-License-Identifier: Apache-2.0

package records

import (
	"context"

	"github.com/go-kit/kit/endpoint"

	"github.com/corral-io/corral/forwarding"
	"github.com/corral-io/corral/model"
	"github.com/corral-io/corral/notify"
	"github.com/corral-io/corral/view"
)

// Combiner runs one fan-out cycle over every registered remote.
type Combiner interface {
	Combined(ctx context.Context, targetPath string, refresh bool) ([]model.Record, []model.TargetResult, error)
}

// Registry is the slice of the config registry the handlers use.
type Registry interface {
	Add(ctx context.Context, raw []byte) (string, error)
	Count(ctx context.Context) (int, error)
}

// Forwarder runs the broadcast, backup, restore and push workflows plus the
// per-target field editor.
type Forwarder interface {
	BroadcastForward(ctx context.Context, value string) ([]model.TargetResult, error)
	Backup(ctx context.Context) (model.ForwardingSnapshot, []model.TargetResult, error)
	Restore(ctx context.Context) ([]model.TargetResult, error)
	PushAll(ctx context.Context, rule forwarding.PushEntry) ([]model.TargetResult, error)
	UpdateTarget(ctx context.Context, key string, fields map[string]interface{}) (model.TargetResult, error)
}

// Notifier sends test notifications.
type Notifier interface {
	Send(ctx context.Context, msg notify.Message) (notify.Result, error)
}

// SenderConfigs manages saved notification sender configurations.
type SenderConfigs interface {
	List(ctx context.Context) ([]notify.SenderConfig, error)
	Save(ctx context.Context, config notify.SenderConfig) (notify.SenderConfig, error)
	Delete(ctx context.Context, id string) error
}

func newGetRecordsEndpoint(combiner Combiner) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		r := request.(*getRecordsRequest)
		records, targets, err := combiner.Combined(ctx, r.path, r.refresh)
		if err != nil {
			return nil, err
		}

		filtered := view.Filter(records, r.search)
		page := view.Paginate(filtered, r.page, view.DefaultPageSize)

		rows := make([]recordRow, 0, len(page.Records))
		for i, record := range page.Records {
			rows = append(rows, recordRow{
				Serial:    view.SerialNumber(page.Filtered, page.Number, page.Size, i),
				ID:        record.ID,
				Source:    record.SourceProjectID,
				SourceURL: record.SourceURL,
				Timestamp: record.Timestamp,
				Fields:    record.Fields,
			})
		}

		return &getRecordsResponse{
			Records:    rows,
			Page:       page.Number,
			PageSize:   page.Size,
			TotalPages: page.TotalPages,
			Filtered:   page.Filtered,
			Total:      len(records),
			Targets:    targets,
		}, nil
	}
}

func newAddConfigEndpoint(registry Registry) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		r := request.(*addConfigRequest)
		key, err := registry.Add(ctx, r.raw)
		if err != nil {
			return nil, err
		}
		return &addConfigResponse{Key: key}, nil
	}
}

func newCountConfigsEndpoint(registry Registry) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		count, err := registry.Count(ctx)
		if err != nil {
			return nil, err
		}
		return &countConfigsResponse{Count: count}, nil
	}
}

func newBroadcastForwardEndpoint(forwarder Forwarder) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		r := request.(*broadcastForwardRequest)
		results, err := forwarder.BroadcastForward(ctx, r.value)
		if err != nil {
			return nil, err
		}
		return newTargetReport(results), nil
	}
}

func newBackupEndpoint(forwarder Forwarder) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		snapshot, results, err := forwarder.Backup(ctx)
		if err != nil {
			return nil, err
		}
		report := newTargetReport(results)
		return &backupResponse{
			Captured:     snapshot.Count,
			Taken:        snapshot.Taken,
			targetReport: *report,
		}, nil
	}
}

func newRestoreEndpoint(forwarder Forwarder) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		results, err := forwarder.Restore(ctx)
		if err != nil {
			return nil, err
		}
		return newTargetReport(results), nil
	}
}

func newPushRuleEndpoint(forwarder Forwarder) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		r := request.(*pushRuleRequest)
		results, err := forwarder.PushAll(ctx, r.rule)
		if err != nil {
			return nil, err
		}
		return newTargetReport(results), nil
	}
}

func newUpdateTargetEndpoint(forwarder Forwarder) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		r := request.(*updateTargetRequest)
		result, err := forwarder.UpdateTarget(ctx, r.key, r.fields)
		if err != nil {
			return nil, err
		}
		return &result, nil
	}
}

func newNotifyTestEndpoint(notifier Notifier) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		r := request.(*notifyTestRequest)
		result, err := notifier.Send(ctx, r.message)
		if err != nil {
			return nil, err
		}
		return &result, nil
	}
}

func newListSendersEndpoint(configs SenderConfigs) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		saved, err := configs.List(ctx)
		if err != nil {
			return nil, err
		}
		return saved, nil
	}
}

func newSaveSenderEndpoint(configs SenderConfigs) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		r := request.(*saveSenderRequest)
		saved, err := configs.Save(ctx, r.config)
		if err != nil {
			return nil, err
		}
		return &saved, nil
	}
}

func newDeleteSenderEndpoint(configs SenderConfigs) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		r := request.(*deleteSenderRequest)
		if err := configs.Delete(ctx, r.id); err != nil {
			return nil, err
		}
		return &deleteSenderResponse{Deleted: r.id}, nil
	}
}

func newTargetReport(results []model.TargetResult) *targetReport {
	report := &targetReport{Targets: results}
	for _, result := range results {
		if result.OK() {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	return report
}
