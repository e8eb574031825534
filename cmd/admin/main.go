package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"papercv/internal/config"
	"papercv/internal/database"
	"papercv/internal/storage"
)

// 维护工具：清理过期的同步链接与过旧的导出产物。
// 数据库参数可通过 flag 覆盖，默认读取与服务相同的环境变量。
func main() {
	var (
		purgeSync    = flag.Bool("purge-sync-links", false, "删除已过期的同步链接")
		purgeExports = flag.Bool("purge-exports", false, "删除过旧的导出任务及其存储产物")
		olderThan    = flag.Int("older-than-days", 30, "导出任务保留天数（与 --purge-exports 搭配）")
		dryRun       = flag.Bool("dry-run", false, "只打印将被删除的内容，不实际删除")
		dbHost       = flag.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
		dbPort       = flag.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
		dbName       = flag.String("db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
		dbUser       = flag.String("db-user", "", "数据库用户（可选，默认读 POSTGRES_USER）")
		dbPass       = flag.String("db-password", "", "数据库密码（可选，默认读 POSTGRES_PASSWORD）")
		sslMode      = flag.String("db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	if !*purgeSync && !*purgeExports {
		log.Fatal("nothing to do: pass --purge-sync-links and/or --purge-exports")
	}

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	ctx := context.Background()

	if *purgeSync {
		if err := purgeExpiredSyncLinks(ctx, db, *dryRun); err != nil {
			log.Fatalf("purge sync links: %v", err)
		}
	}

	if *purgeExports {
		if *olderThan <= 0 {
			log.Fatal("--older-than-days must be positive")
		}
		cfg := config.MustLoad()
		storageClient, err := storage.NewClient(cfg.MinIO)
		if err != nil {
			log.Fatalf("init storage client: %v", err)
		}
		cutoff := time.Now().AddDate(0, 0, -*olderThan)
		if err := purgeStaleExports(ctx, db, storageClient, cutoff, *dryRun); err != nil {
			log.Fatalf("purge exports: %v", err)
		}
		if err := purgeOrphanExportObjects(ctx, db, storageClient, *dryRun); err != nil {
			log.Fatalf("purge orphan export objects: %v", err)
		}
	}
}

// objectStore 是清理任务用到的对象存储操作子集。
type objectStore interface {
	ListObjects(ctx context.Context, prefix string, limit int) ([]storage.ObjectMeta, error)
	DeleteObject(ctx context.Context, objectKey string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

func purgeExpiredSyncLinks(ctx context.Context, db *gorm.DB, dryRun bool) error {
	var links []database.SyncLink
	if err := db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Find(&links).Error; err != nil {
		return fmt.Errorf("query expired sync links: %w", err)
	}

	if len(links) == 0 {
		fmt.Println("no expired sync links")
		return nil
	}

	for _, link := range links {
		fmt.Printf("expired sync link: key=%s expired_at=%s\n", link.Key, link.ExpiresAt.Format(time.RFC3339))
	}
	if dryRun {
		fmt.Printf("dry run: would delete %d sync link(s)\n", len(links))
		return nil
	}

	if err := db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&database.SyncLink{}).Error; err != nil {
		return fmt.Errorf("delete expired sync links: %w", err)
	}
	fmt.Printf("deleted %d sync link(s)\n", len(links))
	return nil
}

func purgeStaleExports(ctx context.Context, db *gorm.DB, store objectStore, cutoff time.Time, dryRun bool) error {
	var jobs []database.ExportJob
	if err := db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Find(&jobs).Error; err != nil {
		return fmt.Errorf("query stale export jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("no stale export jobs")
		return nil
	}

	for _, job := range jobs {
		fmt.Printf("stale export job: key=%s status=%s updated_at=%s\n", job.Key, job.Status, job.UpdatedAt.Format(time.RFC3339))
		if dryRun {
			continue
		}

		// PDF 与预览图都在同一个任务前缀下，一并删除。
		prefix := fmt.Sprintf("exports/%s/%s", job.ClientID, job.Key)
		if err := store.DeletePrefix(ctx, prefix); err != nil {
			return fmt.Errorf("delete export objects under %q: %w", prefix, err)
		}
		if err := db.WithContext(ctx).Unscoped().Delete(&database.ExportJob{}, job.ID).Error; err != nil {
			return fmt.Errorf("delete export job %d: %w", job.ID, err)
		}
	}

	if dryRun {
		fmt.Printf("dry run: would delete %d export job(s)\n", len(jobs))
		return nil
	}
	fmt.Printf("deleted %d export job(s)\n", len(jobs))
	return nil
}

// 单次清理扫描的对象数量上限。
const orphanScanLimit = 10000

// purgeOrphanExportObjects 清理任务记录已不存在的导出产物。
// 任务行被删除而对象删除中途失败时会留下这类孤儿对象。
func purgeOrphanExportObjects(ctx context.Context, db *gorm.DB, store objectStore, dryRun bool) error {
	objects, err := store.ListObjects(ctx, "exports/", orphanScanLimit)
	if err != nil {
		return fmt.Errorf("list export objects: %w", err)
	}

	orphans := 0
	for _, object := range objects {
		jobKey, ok := exportJobKeyFromObjectKey(object.Key)
		if !ok {
			continue
		}

		var count int64
		if err := db.WithContext(ctx).
			Model(&database.ExportJob{}).
			Where("key = ?", jobKey).
			Count(&count).Error; err != nil {
			return fmt.Errorf("look up export job %q: %w", jobKey, err)
		}
		if count > 0 {
			continue
		}

		orphans++
		fmt.Printf("orphan export object: key=%s size=%d\n", object.Key, object.Size)
		if dryRun {
			continue
		}
		if err := store.DeleteObject(ctx, object.Key); err != nil {
			return fmt.Errorf("delete orphan object %q: %w", object.Key, err)
		}
	}

	if orphans == 0 {
		fmt.Println("no orphan export objects")
		return nil
	}
	if dryRun {
		fmt.Printf("dry run: would delete %d orphan object(s)\n", orphans)
		return nil
	}
	fmt.Printf("deleted %d orphan object(s)\n", orphans)
	return nil
}

// exportJobKeyFromObjectKey 从 exports/<clientID>/<jobKey>.pdf 或
// exports/<clientID>/<jobKey>-preview.jpg 形式的对象 key 中取出任务 key。
// 不符合该形状的对象不参与清理。
func exportJobKeyFromObjectKey(objectKey string) (string, bool) {
	parts := strings.Split(objectKey, "/")
	if len(parts) != 3 || parts[0] != "exports" {
		return "", false
	}
	name := parts[2]
	switch {
	case strings.HasSuffix(name, "-preview.jpg"):
		name = strings.TrimSuffix(name, "-preview.jpg")
	case strings.HasSuffix(name, ".pdf"):
		name = strings.TrimSuffix(name, ".pdf")
	default:
		return "", false
	}
	if name == "" {
		return "", false
	}
	return name, true
}

func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	if strings.TrimSpace(host) == "" {
		host = os.Getenv("DATABASE_HOST")
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("POSTGRES_DB")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("POSTGRES_USER")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("POSTGRES_PASSWORD")
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = os.Getenv("DATABASE_SSLMODE")
	}

	if strings.TrimSpace(host) == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 5432
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = "disable"
	}
	if strings.TrimSpace(name) == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	}
	if strings.TrimSpace(user) == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	}
	if strings.TrimSpace(password) == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}

	return config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     name,
		User:     user,
		Password: password,
		SSLMode:  sslmode,
	}, nil
}
