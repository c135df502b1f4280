package models

import "encoding/xml"

// TrendFeed представляет корневой элемент RSS-выдачи дневных трендов.
type TrendFeed struct {
	XMLName xml.Name     `xml:"rss"`
	Channel TrendChannel `xml:"channel"`
}

// TrendChannel содержит заголовок ленты и список элементов TrendItem.
type TrendChannel struct {
	Title string      `xml:"title"`
	Items []TrendItem `xml:"item"`
}

// TrendItem — один тренд из ленты. ApproxTraffic приходит из
// расширения ht: и сопоставляется по локальному имени элемента.
type TrendItem struct {
	Title         string `xml:"title"`
	ApproxTraffic string `xml:"approx_traffic"`
}
