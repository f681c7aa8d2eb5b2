package storage

import (
	"fmt"
	"log"
	"strings"

	"talent-match-go/internal/config"
)

// Storage 存储管理器，聚合所有存储相关依赖
type Storage struct {
	// 关系型数据库(候选人/岗位画像、匹配评估结果)
	MySQL *MySQL

	// 向量数据库(候选人/岗位嵌入索引)
	Qdrant *Qdrant

	// 键值存储(排名与报告缓存、分布式锁)
	Redis *Redis

	// 消息队列(匹配事件发布)
	RabbitMQ *RabbitMQ
}

// NewStorage 创建存储管理器
// MySQL和Qdrant是匹配引擎的硬依赖，初始化失败直接返回错误
// Redis和RabbitMQ是可选增强，失败时降级为无缓存/无事件运行
func NewStorage(cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	storage := &Storage{}
	var err error
	var degraded []string

	if cfg.MySQL.Host == "" {
		return nil, fmt.Errorf("MySQL未配置")
	}
	storage.MySQL, err = NewMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("初始化MySQL失败: %w", err)
	}
	log.Println("MySQL客户端初始化成功")

	if cfg.Qdrant.Endpoint == "" {
		storage.MySQL.Close()
		return nil, fmt.Errorf("Qdrant未配置")
	}
	storage.Qdrant, err = NewQdrant(&cfg.Qdrant)
	if err != nil {
		storage.MySQL.Close()
		return nil, fmt.Errorf("初始化Qdrant失败: %w", err)
	}

	if cfg.Redis.Address != "" {
		storage.Redis, err = NewRedis(&cfg.Redis)
		if err != nil {
			log.Printf("警告: 初始化Redis失败，将以无缓存模式运行: %v", err)
			degraded = append(degraded, fmt.Sprintf("Redis: %v", err))
			storage.Redis = nil
		}
	} else {
		log.Println("Redis未配置，跳过初始化")
	}

	if cfg.RabbitMQ.URL != "" {
		storage.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		if err != nil {
			log.Printf("警告: 初始化RabbitMQ失败，匹配事件将不发布: %v", err)
			degraded = append(degraded, fmt.Sprintf("RabbitMQ: %v", err))
			storage.RabbitMQ = nil
		}
	} else {
		log.Println("RabbitMQ未配置，跳过初始化")
	}

	if len(degraded) > 0 {
		log.Printf("警告: 以下存储组件降级运行: %s", strings.Join(degraded, "; "))
	}

	return storage, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			log.Printf("关闭RabbitMQ连接失败: %v", err)
		}
	}

	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			log.Printf("关闭MySQL连接失败: %v", err)
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Printf("关闭Redis连接失败: %v", err)
		}
	}
	// Qdrant走HTTP短连接，无需显式Close
}
