package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"plantary/internal/blob"
	"plantary/pkg/domain"
	"strconv"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// BackupPrefix is the blob key prefix under which ledger backups are written.
const BackupPrefix = "backups/"

const (
	backupContentType = "application/cbor"
	maxBackupBytes    = 1 << 30
)

var (
	backupCodecOnce sync.Once
	backupEncMode   cbor.EncMode
	backupDecMode   cbor.DecMode
	backupCodecErr  error
)

func backupCodec() (cbor.EncMode, cbor.DecMode, error) {
	backupCodecOnce.Do(func() {
		encOpts := cbor.EncOptions{
			// identical ledgers must produce identical bytes
			Sort: cbor.SortCoreDeterministic,
		}
		backupEncMode, backupCodecErr = encOpts.EncMode()
		if backupCodecErr != nil {
			return
		}
		decOpts := cbor.DecOptions{
			ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
			DupMapKey:         cbor.DupMapKeyEnforcedAPF,
			MaxArrayElements:  2147483647,
		}
		backupDecMode, backupCodecErr = decOpts.DecMode()
	})
	return backupEncMode, backupDecMode, backupCodecErr
}

// EncodeSnapshot serialises a ledger snapshot as deterministic CBOR.
func EncodeSnapshot(snapshot domain.Snapshot) ([]byte, error) {
	enc, _, err := backupCodec()
	if err != nil {
		return nil, err
	}
	return enc.Marshal(snapshot)
}

// DecodeSnapshot parses a snapshot produced by EncodeSnapshot.
func DecodeSnapshot(data []byte) (domain.Snapshot, error) {
	_, dec, err := backupCodec()
	if err != nil {
		return domain.Snapshot{}, err
	}
	var snapshot domain.Snapshot
	if err := dec.Unmarshal(data, &snapshot); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot, nil
}

// Backup writes the committed ledger state to store under
// backups/<timestamp>.cbor. Admin only.
func (s *Service) Backup(ctx context.Context, store blob.Store) (blob.Info, error) {
	if err := s.AssertAdmin(ctx); err != nil {
		return blob.Info{}, err
	}
	snapshot := s.store.ExportState()
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode snapshot: %w", err)
	}
	key := BackupPrefix + s.now().Format("20060102T150405.000000000Z") + ".cbor"
	info, err := store.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
		ContentType: backupContentType,
		Metadata: map[string]string{
			"veggies": strconv.Itoa(len(snapshot.Veggies)),
			"seeds":   strconv.Itoa(len(snapshot.Seeds)),
			"tokens":  strconv.Itoa(len(snapshot.Tokens)),
		},
	})
	if err != nil {
		s.logger.Error("ledger backup failed", "key", key, "error", err)
		return blob.Info{}, fmt.Errorf("store backup %s: %w", key, err)
	}
	s.logger.Info("ledger backup written", "key", key, "bytes", len(data))
	return info, nil
}

// ListBackups returns the backups present in store.
func (s *Service) ListBackups(ctx context.Context, store blob.Store) ([]blob.Info, error) {
	return store.List(ctx, BackupPrefix)
}

// Restore replaces the whole ledger with the backup stored at key. The
// snapshot is validated before the current state is touched. Admin only.
func (s *Service) Restore(ctx context.Context, store blob.Store, key string) error {
	if err := s.AssertAdmin(ctx); err != nil {
		return err
	}
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("fetch backup %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(io.LimitReader(rc, maxBackupBytes+1))
	if err != nil {
		return fmt.Errorf("read backup %s: %w", key, err)
	}
	if len(data) > maxBackupBytes {
		return fmt.Errorf("backup %s exceeds %d bytes", key, maxBackupBytes)
	}
	snapshot, err := DecodeSnapshot(data)
	if err != nil {
		return err
	}
	if err := s.store.ImportState(ctx, snapshot); err != nil {
		s.logger.Error("ledger restore failed", "key", key, "error", err)
		return fmt.Errorf("restore %s: %w", key, err)
	}
	s.logger.Info("ledger restored", "key", key, "veggies", len(snapshot.Veggies), "seeds", len(snapshot.Seeds))
	return nil
}
