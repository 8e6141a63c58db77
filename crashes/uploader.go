package crashes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jitsucom/crashnative/locks"
	"github.com/jitsucom/crashnative/logging"
	"github.com/jitsucom/crashnative/metrics"
	"github.com/jitsucom/crashnative/storages"
	"github.com/jitsucom/crashnative/transport"
)

const (
	uploadLockName  = "crashes_upload"
	formContentType = "application/x-www-form-urlencoded"
)

//Uploader drains Store into the crash collection endpoint
type Uploader struct {
	store        *Store
	sender       transport.Sender
	connectivity transport.Connectivity
	lock         locks.Lock
	url          string
	errorHandler func(error)
}

//NewUploader returns Uploader which posts records to <endpoint>/api/2/apps/<appID>/crashes
func NewUploader(store *Store, sender transport.Sender, connectivity transport.Connectivity, lockFactory locks.LockFactory,
	endpoint, appID string, errorHandler func(error)) *Uploader {
	if connectivity == nil {
		connectivity = transport.AlwaysOnline{}
	}
	if errorHandler == nil {
		errorHandler = store.errorHandler
	}

	return &Uploader{
		store:        store,
		sender:       sender,
		connectivity: connectivity,
		lock:         lockFactory.CreateLock(uploadLockName),
		url:          CrashesURL(endpoint, appID),
		errorHandler: errorHandler,
	}
}

//CrashesURL returns crash upload url
func CrashesURL(endpoint, appID string) string {
	return strings.TrimRight(endpoint, "/") + "/api/2/apps/" + appID + "/crashes"
}

//SendAllAndDeleteOnSuccess sends every pending record one by one.
//Only one pass runs at a time: a concurrent call returns false immediately.
//Sent records and records which can't ever be sent are deleted.
//A transient transport failure stops the pass and keeps the record for the next pass.
//Returns true if at least one record has been sent
func (u *Uploader) SendAllAndDeleteOnSuccess(ctx context.Context) bool {
	locked, err := u.lock.TryLock(0)
	if err != nil || !locked {
		metrics.UploadPassRejected()
		logging.Debug("Crash upload pass is already running. Skipped")
		return false
	}
	defer u.lock.Unlock()

	if !u.connectivity.IsOnline() {
		logging.Debug("No network connection. Crash upload pass skipped")
		return false
	}

	names, err := u.store.ListPending(ctx)
	if err != nil {
		u.errorHandler(err)
		return false
	}

	sentAny := false
	for _, name := range names {
		if ctx.Err() != nil {
			break
		}

		err := u.sendFile(ctx, name)
		switch {
		case err == nil:
			sentAny = true
			metrics.CrashUploaded()
			u.delete(ctx, name)
		case errors.Is(err, storages.ErrFileNotFound):
			//has been deleted after listing
			continue
		case errors.Is(err, ErrCorruptRecord):
			u.discard(ctx, name, "corrupt", err)
		case transport.IsTransient(err):
			metrics.CrashRetryLater()
			u.errorHandler(fmt.Errorf("Crash file [%s] will be sent later: %v", name, err))
			return sentAny
		default:
			reason := "corrupt"
			if _, ok := transport.StatusCodeOf(err); ok {
				reason = "rejected"
			}
			u.discard(ctx, name, reason, err)
		}
	}

	return sentAny
}

func (u *Uploader) sendFile(ctx context.Context, name string) error {
	record, err := u.store.Load(ctx, name)
	if err != nil {
		return err
	}

	values, err := record.FormValues()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}

	_, err = u.sender.Send(ctx, &transport.Request{
		URL:         u.url,
		ContentType: formContentType,
		Body:        []byte(values.Encode()),
	})
	return err
}

func (u *Uploader) discard(ctx context.Context, name, reason string, err error) {
	metrics.CrashDiscarded(reason)
	logging.Warnf("Crash file [%s] is discarded: %v", name, err)
	u.delete(ctx, name)
}

func (u *Uploader) delete(ctx context.Context, name string) {
	if err := u.store.Delete(ctx, name); err != nil {
		u.errorHandler(err)
	}
}
