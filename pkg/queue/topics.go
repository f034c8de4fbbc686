// Package queue 定义消息主题常量，供发布/订阅使用.
package queue

// 主题命名规范：fs.<域>.<动作>，尽量稳定且向后兼容.
// 域：file(单个文件)、crawl(全量扫描)、index(索引流水线)
// 动作：事件过去式(changed/removed/discovered/started/finished)

const (
	// 文件事件领域.
	TopicFileChanged    = "fs.file.changed"    // 监听器观察到创建/写入/重命名，且去抖窗口已结束
	TopicFileDiscovered = "fs.file.discovered" // 全量扫描发现文件
	TopicFileRemoved    = "fs.file.removed"    // 监听器观察到删除；当前只记录，不回收 FileRecord

	// 扫描领域.
	TopicCrawlStarted  = "fs.crawl.started"  // 某个根目录的全量扫描开始
	TopicCrawlFinished = "fs.crawl.finished" // 某个根目录的全量扫描结束

	// 索引领域.
	TopicIndexCompleted = "fs.index.completed" // 单个文件的索引流水线执行完毕
)
