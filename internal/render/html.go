package render

import (
	"html/template"
	"io"

	"github.com/msalah0e/flowcanvas/internal/geometry"
	"github.com/msalah0e/flowcanvas/internal/scene"
	"github.com/msalah0e/flowcanvas/internal/viewport"
)

type htmlControls struct {
	MinZoom   float64 `json:"minZoom"`
	MaxZoom   float64 `json:"maxZoom"`
	Step      float64 `json:"step"`
	Mode      string  `json:"mode"`
	Policy    string  `json:"policy"`
	WheelFree bool    `json:"wheelFree"`
	Static    bool    `json:"static"`
	Editable  bool    `json:"editable"`
}

type htmlInitial struct {
	X        float64       `json:"x"`
	Y        float64       `json:"y"`
	Zoom     float64       `json:"zoom"`
	Selected string        `json:"selected"`
	Bounds   geometry.Rect `json:"bounds"`
	Endpoint string        `json:"endpoint,omitempty"`
}

type htmlPage struct {
	Title       string
	Description string
	Status      string
	Nodes       int
	Edges       int
	SVG         template.HTML
	Controls    htmlControls
	Initial     htmlInitial
}

var pageTmpl = template.Must(template.New("canvas").Parse(pageTemplate))

// HTML writes a self-contained viewer page: the SVG plus a small script that
// runs the same pan/zoom/select state machine in the browser.
func HTML(w io.Writer, sc scene.Scene, vp viewport.State, opts Options) error {
	return writeHTML(w, sc, vp, opts, "")
}

// HTMLSession is HTML for a page backed by a server session. Pointer and
// wheel events are mirrored to endpoint so the server-side host stays in sync.
func HTMLSession(w io.Writer, sc scene.Scene, vp viewport.State, opts Options, endpoint string) error {
	return writeHTML(w, sc, vp, opts, endpoint)
}

func writeHTML(w io.Writer, sc scene.Scene, vp viewport.State, opts Options, endpoint string) error {
	o := opts.withDefaults()
	title := sc.Name
	if title == "" {
		title = "flowcanvas"
	}
	cfg := o.Viewport
	page := htmlPage{
		Title:       title,
		Description: sc.Description,
		Status:      sc.Status.String(),
		Nodes:       len(sc.Nodes),
		Edges:       len(sc.Edges),
		// writeSVG escapes every text and attribute value it emits.
		SVG: template.HTML(SVGString(sc, vp, o)),
		Controls: htmlControls{
			MinZoom:   cfg.MinZoom,
			MaxZoom:   cfg.MaxZoom,
			Step:      cfg.Step,
			Mode:      cfg.Mode.String(),
			Policy:    cfg.Policy.String(),
			WheelFree: cfg.WheelZoomsFreely,
			Static:    o.Static,
			Editable:  o.Editable,
		},
		Initial: htmlInitial{
			X:        vp.Pan.X,
			Y:        vp.Pan.Y,
			Zoom:     vp.Zoom,
			Selected: o.Selected,
			Bounds:   sc.Bounds,
			Endpoint: endpoint,
		},
	}
	return pageTmpl.Execute(w, page)
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
body{background:#f8fafc;color:#1e293b;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',sans-serif;height:100vh;display:flex;flex-direction:column;overflow:hidden}
header{padding:12px 20px;border-bottom:1px solid #e2e8f0;background:#fff;display:flex;align-items:center;gap:16px}
header h1{font-size:16px;font-weight:600}
header p{font-size:12px;color:#64748b}
.stats{margin-left:auto;font-size:12px;color:#64748b}
#stage{flex:1;position:relative;overflow:hidden;cursor:grab;user-select:none}
#stage.panning{cursor:grabbing}
#stage svg{position:absolute;top:0;left:0;width:100%;height:100%}
.node{cursor:pointer}
#toolbar{position:absolute;top:12px;right:12px;display:flex;gap:6px;z-index:5}
#toolbar button{background:#fff;border:1px solid #e2e8f0;border-radius:6px;padding:6px 10px;font-size:12px;cursor:pointer}
#toolbar button:hover{border-color:#2563eb}
#zoom{position:absolute;bottom:12px;right:12px;font-size:11px;color:#64748b;background:#fff;border:1px solid #e2e8f0;border-radius:6px;padding:4px 8px}
</style>
</head>
<body>
<header>
  <div>
    <h1>{{.Title}}</h1>
    {{with .Description}}<p>{{.}}</p>{{end}}
  </div>
  <div class="stats">{{.Nodes}} nodes &middot; {{.Edges}} connections</div>
</header>
<div id="stage" data-status="{{.Status}}">
  <div id="toolbar">
    <button id="zoom-in" title="Zoom in">+</button>
    <button id="zoom-out" title="Zoom out">&minus;</button>
    <button id="fit" title="Center on nodes">Center</button>
    <button id="reset" title="Reset view">Reset</button>
  </div>
  {{.SVG}}
  <div id="zoom"></div>
</div>
<script>
"use strict";
const CFG={{.Controls}};
const INIT={{.Initial}};
const stage=document.getElementById('stage');
let svg=stage.querySelector('svg');
let view=svg.querySelector('g.viewport');
const zoomLabel=document.getElementById('zoom');
let st={x:INIT.x,y:INIT.y,zoom:INIT.zoom};
let mode='idle',last=null,downAt=null,downNode=null,moved=false,selected=INIT.selected;

function clamp(z){z=Math.round(z*1e6)/1e6;return Math.min(CFG.maxZoom,Math.max(CFG.minZoom,z))}
function step(dir){
  let z=st.zoom;
  if(CFG.mode==='multiplicative'){z=dir>0?z*(1+CFG.step):z/(1+CFG.step)}else{z=z+dir*CFG.step}
  st.zoom=clamp(z);
}
function paint(){
  if(view)view.setAttribute('transform','translate('+st.x+', '+st.y+') scale('+st.zoom+')');
  zoomLabel.textContent=Math.round(st.zoom*100)+'%';
  svg.querySelectorAll('g.node').forEach(g=>{
    const on=g.dataset.id===selected;
    g.classList.toggle('selected',on);
    const p=g.querySelector('path');
    if(!p.dataset.stroke)p.dataset.stroke=p.getAttribute('stroke');
    p.setAttribute('stroke',on?'#2563eb':p.dataset.stroke);
    p.setAttribute('stroke-width',on?'3':'2');
  });
}
// Input is collected per animation frame: pan deltas and wheel notches go
// to the session as one batch, node drags as the latest pointer position.
let queued=false,pending={pans:[],wheels:[],move:null};
function schedule(){if(!queued){queued=true;requestAnimationFrame(()=>{queued=false;flush();paint()})}}
let chain=Promise.resolve();
function send(kind,payload){
  if(!INIT.endpoint)return null;
  chain=chain.then(()=>fetch(INIT.endpoint+'/'+kind,{method:'POST',headers:{'Content-Type':'application/json'},body:JSON.stringify(payload)})).catch(()=>{});
  return chain;
}
function flush(){
  if(pending.pans.length||pending.wheels.length){
    send('batch',{pans:pending.pans,wheels:pending.wheels});
    pending.pans=[];pending.wheels=[];
  }
  if(pending.move){send('pointer',Object.assign({phase:'move'},pending.move));pending.move=null}
}
function panTrigger(e){
  if(CFG.policy==='modifier')return e.button===1||(e.button===0&&(e.ctrlKey||e.metaKey));
  return e.button===0||e.button===1;
}
function nodeOf(e){const g=e.target.closest&&e.target.closest('g.node');return g?g.dataset.id:null}
function ptr(e){const r=stage.getBoundingClientRect();return{x:e.clientX-r.left,y:e.clientY-r.top}}
function refresh(){
  fetch(INIT.endpoint+'/render?format=svg').then(r=>r.text()).then(t=>{
    const tmp=document.createElement('div');tmp.innerHTML=t;
    const next=tmp.querySelector('svg');if(!next)return;
    svg.replaceWith(next);svg=next;view=svg.querySelector('g.viewport');paint();
  }).catch(()=>{});
}
function toggle(id){if(CFG.static)return;selected=selected===id?'':id;schedule()}

stage.addEventListener('pointerdown',e=>{
  if(e.target.closest('#toolbar'))return;
  flush();
  const p=ptr(e),mod=e.ctrlKey||e.metaKey;
  send('pointer',{phase:'down',x:p.x,y:p.y,button:e.button,ctrl:e.ctrlKey,meta:e.metaKey,shift:e.shiftKey});
  downAt=p;moved=false;
  downNode=(e.button===0&&!(CFG.policy==='modifier'&&mod))?nodeOf(e):null;
  if(downNode&&CFG.editable){mode='dragging';stage.setPointerCapture(e.pointerId);return}
  if(panTrigger(e)){mode='panning';last=p;stage.classList.add('panning');stage.setPointerCapture(e.pointerId)}
});
stage.addEventListener('pointermove',e=>{
  if(mode==='idle')return;
  const p=ptr(e);
  if(downAt&&Math.hypot(p.x-downAt.x,p.y-downAt.y)>3)moved=true;
  if(mode==='panning'){
    const dx=p.x-last.x,dy=p.y-last.y;
    st.x+=dx;st.y+=dy;last=p;
    pending.pans.push({x:dx,y:dy});
  }else{
    pending.move={x:p.x,y:p.y};
  }
  schedule();
});
function end(e,phase){
  if(mode==='idle'&&!downAt)return;
  flush();
  let p=ptr(e);
  const panned=mode==='panning',dragged=mode==='dragging'&&moved;
  if(panned)stage.classList.remove('panning');
  if(phase==='up'&&downNode&&!moved)toggle(downNode);
  // The session already has this pan from the batches; end it where the
  // server last saw the pointer so the release adds no further delta.
  if(panned){
    if(moved)phase='leave';
    p=downAt;
  }
  mode='idle';downAt=null;downNode=null;moved=false;
  const r=send('pointer',{phase:phase,x:p.x,y:p.y});
  if(dragged&&r)r.then(refresh);
}
stage.addEventListener('pointerup',e=>end(e,'up'));
stage.addEventListener('pointerleave',e=>end(e,'leave'));
stage.addEventListener('wheel',e=>{
  const mod=e.ctrlKey||e.metaKey;
  if(e.deltaY===0||(!mod&&!CFG.wheelFree))return;
  e.preventDefault();
  step(e.deltaY<0?1:-1);
  pending.wheels.push({deltaY:e.deltaY,ctrl:e.ctrlKey,meta:e.metaKey});
  schedule();
},{passive:false});
document.getElementById('zoom-in').onclick=()=>{step(1);flush();schedule();send('zoom',{steps:1})};
document.getElementById('zoom-out').onclick=()=>{step(-1);flush();schedule();send('zoom',{steps:-1})};
document.getElementById('reset').onclick=()=>{st={x:0,y:0,zoom:1};flush();schedule();send('reset',{})};
document.getElementById('fit').onclick=()=>{
  const b=INIT.bounds,r=stage.getBoundingClientRect(),pad=40;
  if(!b||b.w<=0||b.h<=0)return;
  const z=clamp(Math.min(Math.max(r.width-2*pad,1)/b.w,Math.max(r.height-2*pad,1)/b.h));
  st={zoom:z,x:(r.width-b.w*z)/2-b.x*z,y:(r.height-b.h*z)/2-b.y*z};
  flush();schedule();send('fit',{width:r.width,height:r.height,padding:pad});
};
paint();
</script>
</body>
</html>
`
